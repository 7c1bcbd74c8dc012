// Package config loads runtime configuration for the para CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: PARAMETRIK_URL, PARAMETRIK_CREDENTIALS, PARAMETRIK_TIMEOUT,
//     PARAMETRIK_VERBOSE.
//  4. Command-line flags.
//
// Flags
//
//	-u string   server base URL (default http://localhost:3001)
//	-f string   credential cache file
//	-t duration request timeout
//	-v          log failure details to stderr
//
// JSON
//
//	{
//	  "server_url": "https://auth.example.com",
//	  "credentials_path": "/home/alice/.config/parametrik/credentials.db",
//	  "request_timeout": "10s"
//	}
//
// An empty CredentialsPath means the cache lives in the user config
// directory; if that cannot be created the token is printed instead.
package config
