package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host               string        `env:"HOST,default=localhost"`
	Port               int           `env:"PORT,default=8080"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret          string        `env:"JWT_SECRET,required=true"`
	JWTIssuer          string        `env:"JWT_ISSUER,default=chat-relay"`
	AuthTokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	SessionBufferSize  int           `env:"SESSION_BUFFER_SIZE,default=256"`
	HistoryReplayLimit int           `env:"HISTORY_REPLAY_LIMIT,default=50"`
	ArchiveCadence     time.Duration `env:"ARCHIVE_CADENCE,default=24h"`
	ArchiveRetention   time.Duration `env:"ARCHIVE_RETENTION,default=24h"`
	// ModerationWords is a comma-separated censored word list; empty
	// disables moderation.
	ModerationWords           string `env:"MODERATION_WORDS"`
	ModerationCharReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) CensoredWords() []string {
	if strings.TrimSpace(c.ModerationWords) == "" {
		return nil
	}
	return strings.Split(c.ModerationWords, ",")
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
