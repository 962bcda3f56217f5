package internal

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	Host                 string        `env:"HOST,required=true"`
	Port                 int           `env:"PORT,required=true"`
	JwksURL              string        `env:"JWKS_URL,required=true"`
	JwtIssuer            string        `env:"JWT_ISSUER,required=true"`
	JwtAudience          string        `env:"JWT_AUDIENCE,required=true"`
	Rooms                string        `env:"ROOMS,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
}

// SeedRooms parses the comma-separated ROOMS value into the administrative
// seed list: trimmed, empties dropped, duplicates collapsed.
func (c Config) SeedRooms() []string {
	names := strings.Split(c.Rooms, ",")
	names = lo.Map(names, func(name string, _ int) string { return strings.TrimSpace(name) })
	names = lo.Filter(names, func(name string, _ int) bool { return name != "" })
	return lo.Uniq(names)
}
