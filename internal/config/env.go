package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envPrefix namespaces all environment overrides.
const envPrefix = "HYPERSCHEDULE_"

// applyEnvOverrides layers HYPERSCHEDULE_* variables over the loaded file.
// Supported: CACHE, VERBOSE, HOST, PORT, SCRAPER_TIMEOUT (seconds),
// CONCURRENCY, STATE_PATH, NATS_URL.
func (c *Config) applyEnvOverrides() error {
	if v, ok := lookupEnv("CACHE"); ok {
		b, err := parseBool("CACHE", v)
		if err != nil {
			return err
		}
		c.Fetch.Cache = &b
	}
	if v, ok := lookupEnv("VERBOSE"); ok {
		b, err := parseBool("VERBOSE", v)
		if err != nil {
			return err
		}
		c.Verbose = b
	}
	host, hostSet := lookupEnv("HOST")
	port, portSet := lookupEnv("PORT")
	if hostSet || portSet {
		curHost, curPort := splitListen(c.Daemon.Listen)
		if hostSet {
			curHost = host
		}
		if portSet {
			curPort = port
		}
		c.Daemon.Listen = curHost + ":" + curPort
	}
	if v, ok := lookupEnv("SCRAPER_TIMEOUT"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("malformed %sSCRAPER_TIMEOUT (= %q): want positive seconds", envPrefix, v)
		}
		for i := range c.Schools {
			c.Schools[i].Timeout = time.Duration(secs) * time.Second
		}
	}
	if v, ok := lookupEnv("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("malformed %sCONCURRENCY (= %q): want positive integer", envPrefix, v)
		}
		for i := range c.Schools {
			c.Schools[i].Concurrency = n
		}
	}
	if v, ok := lookupEnv("STATE_PATH"); ok {
		c.State.Path = v
	}
	if v, ok := lookupEnv("NATS_URL"); ok {
		c.Daemon.NATS.URL = v
		if c.Daemon.NATS.Subject == "" {
			c.Daemon.NATS.Subject = DefaultNATSSubject
		}
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// parseBool accepts several spellings for booleans: 1/on plus any prefix
// of yes, true or enabled mean true; 0/off plus any prefix of no, false or
// disabled mean false. Anything else is an error.
func parseBool(name, val string) (bool, error) {
	lower := strings.ToLower(val)
	if val == "1" || lower == "on" || hasAnyPrefix(lower, "yes", "true", "enabled") {
		return true, nil
	}
	if val == "0" || lower == "off" || hasAnyPrefix(lower, "no", "false", "disabled") {
		return false, nil
	}
	return false, fmt.Errorf("malformed boolean %s%s (= %q)", envPrefix, name, val)
}

func hasAnyPrefix(s string, words ...string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.HasPrefix(w, s) {
			return true
		}
	}
	return false
}

func splitListen(listen string) (host, port string) {
	if i := strings.LastIndex(listen, ":"); i >= 0 {
		return listen[:i], listen[i+1:]
	}
	return listen, "3000"
}
