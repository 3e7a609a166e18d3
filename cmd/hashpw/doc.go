// Command hashpw creates and checks the bcrypt hash used for the admin
// endpoints of the portfolio site.
//
// Usage:
//
//	hashpw <command>
//
// Commands:
//
//	hash            Prompt for a password twice and print its bcrypt hash.
//	                Put the output in ADMIN_PASSWORD_HASH.
//
//	verify [hash]   Prompt for a password and report whether it matches the
//	                hash argument, or ADMIN_PASSWORD_HASH when omitted.
//
// When stdin is not a terminal the password is read from the first line of
// stdin instead, so the tool can be scripted.
//
// Environment:
//
//	ADMIN_PASSWORD_HASH - hash checked by verify when no argument is given
//	BCRYPT_COST         - cost used by hash (default: bcrypt.DefaultCost)
package main
