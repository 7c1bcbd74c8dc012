// Package cli implements the para command-line client.
//
//	para [-u URL] [-c config.json] [-f cache.db] [-t timeout] <command> [flags]
//
// Commands:
//
//	register              prompt for name, email and password and create the account
//	login [-e email] [-p password]
//	                      obtain an access token and store it in the credential cache
//	logout                forget the cached token
//
// Missing values are prompted for; passwords are read without echo when stdin
// is a terminal. Run returns the process exit status.
package cli
