package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server listen address in format [host]:[port]
//	-d database DSN
//	-local-db local SQLite database path
//	-base-url server base URL used by the client gateway
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "24h")
//	-request-timeout inbound request timeout (e.g., "30s")
//	-adapter-timeout outbound gateway request timeout
//	-sync-interval periodic sync cadence
//	-debounce-window realtime notification debounce window
//	-ping-interval connectivity probe cadence
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var localDBPath string
	var baseURL string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var adapterTimeout time.Duration
	var syncInterval time.Duration
	var debounceWindow time.Duration
	var pingInterval time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&localDBPath, "local-db", "", "Local SQLite database path")
	flag.StringVar(&baseURL, "base-url", "", "Server base URL")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Inbound request timeout (e.g., 30s)")
	flag.DurationVar(&adapterTimeout, "adapter-timeout", 0, "Outbound gateway request timeout")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync cadence")
	flag.DurationVar(&debounceWindow, "debounce-window", 0, "Realtime debounce window")
	flag.DurationVar(&pingInterval, "ping-interval", 0, "Connectivity probe cadence")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Local: Local{
				Path: localDBPath,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			BaseURL:        baseURL,
			RequestTimeout: adapterTimeout,
		},
		Sync: Sync{
			Interval:       syncInterval,
			DebounceWindow: debounceWindow,
			PingInterval:   pingInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the
// NetAddress. It validates the port range, checks IP correctness unless
// host is "localhost", and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
