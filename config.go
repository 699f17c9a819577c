package som

import (
	"encoding/json"
	"os"

	"github.com/sharedcode/som/cache"
)

// Configuration contains process-wide defaults read at startup: the optional Redis L2 cache
// connection, the namespace prefixes a session starts out with registered (spec §6 "a name
// may contain a prefix: portion which must resolve to a registered namespace"), and the
// userId attributed to jcr:createdBy/jcr:lastModifiedBy autocreation (spec §4.8.2) absent a
// per-session override.
type Configuration struct {
	RedisOptions      cache.Options
	DefaultNamespaces map[string]string
	UserId            string
}

// LoadConfiguration reads a JSON file and loads it into memory.
func LoadConfiguration(filename string) (Configuration, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Configuration{}, err
	}

	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		return Configuration{}, err
	}
	return c, nil
}
