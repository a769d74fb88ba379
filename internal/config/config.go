package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
	Wagers     Wagers `yaml:"wagers"`
	Bot        Bot    `yaml:"bot"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game carries the match timing knobs. Durations are env-driven so they can
// be tuned per deployment without touching the config file.
type Game struct {
	Countdown          time.Duration `env:"GAME_COUNTDOWN" env-default:"3s"`
	FirstTurnTimeout   time.Duration `env:"GAME_FIRST_TURN_TIMEOUT" env-default:"15s"`
	TurnTimeout        time.Duration `env:"GAME_TURN_TIMEOUT" env-default:"10s"`
	FinishedEvictAfter time.Duration `env:"GAME_FINISHED_EVICT_AFTER" env-default:"30s"`
	BotSpawnMin        time.Duration `env:"GAME_BOT_SPAWN_MIN" env-default:"15s"`
	BotSpawnMax        time.Duration `env:"GAME_BOT_SPAWN_MAX" env-default:"45s"`
	BotMoveMin         time.Duration `env:"GAME_BOT_MOVE_MIN" env-default:"800ms"`
	BotMoveMax         time.Duration `env:"GAME_BOT_MOVE_MAX" env-default:"2500ms"`
}

// Wagers is the stake configuration table: the allowed tiers and the script
// bucket each tier draws its scripted verdicts from.
type Wagers struct {
	Tiers         []Tier            `yaml:"tiers"`
	Buckets       map[string]Bucket `yaml:"buckets"`
	DefaultBucket string            `yaml:"default-bucket" env-default:"high"`
	HistoryTTL    time.Duration     `env:"WAGERS_HISTORY_TTL" env-default:"0"`
}

type Tier struct {
	Amount int64  `yaml:"amount"`
	Payout int64  `yaml:"payout"`
	Fee    int64  `yaml:"fee"`
	Bucket string `yaml:"bucket"`
}

// Bucket is one repeating verdict script. Tokens are W (bot wins) and
// L (bot loses). RematchOverride arms the same-tier first-loss override.
type Bucket struct {
	Script          string `yaml:"script"`
	RematchOverride bool   `yaml:"rematch-override"`
}

type Bot struct {
	MistakeChance            float64 `yaml:"mistake-chance" env-default:"0.12"`
	MissBlockChance          float64 `yaml:"miss-block-chance" env-default:"0.35"`
	MustWinDrawToleranceMin  int     `yaml:"must-win-draw-tolerance-min" env-default:"2"`
	MustWinDrawToleranceMax  int     `yaml:"must-win-draw-tolerance-max" env-default:"4"`
	MustLoseDrawToleranceMin int     `yaml:"must-lose-draw-tolerance-min" env-default:"1"`
	MustLoseDrawToleranceMax int     `yaml:"must-lose-draw-tolerance-max" env-default:"3"`
	BlunderDelayMin          int     `yaml:"blunder-delay-min" env-default:"2"`
	BlunderDelayMax          int     `yaml:"blunder-delay-max" env-default:"4"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// TierByAmount resolves a stake amount against the configured tier table.
func (that *Wagers) TierByAmount(amount int64) (Tier, bool) {
	for _, tier := range that.Tiers {
		if tier.Amount == amount {
			return tier, true
		}
	}

	return Tier{}, false
}

// BucketFor resolves a tier's script bucket, falling back to the default
// bucket for tiers without an explicit one.
func (that *Wagers) BucketFor(tier Tier) (string, Bucket) {
	name := tier.Bucket
	if name == "" {
		name = that.DefaultBucket
	}

	return name, that.Buckets[name]
}
