package entity

// Participant is one match slot. Address is the external payment address
// the settlement bridge pays out to; it is empty for automated opponents.
type Participant struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Mark    string `json:"mark,omitempty"`
	Bot     bool   `json:"-"`
}

func NewParticipant(id, address string) *Participant {
	return &Participant{
		ID:      id,
		Address: address,
	}
}

func NewBotParticipant(id string) *Participant {
	return &Participant{
		ID:  id,
		Bot: true,
	}
}
