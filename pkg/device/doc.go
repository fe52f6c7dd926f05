// Package device stores the known devices of each user and the log of login
// attempts made from them.
//
// A device is identified by the user's security record and the public IP it
// connects from. It is pending until authorized, and a pending device holds
// the ID of the single-use token that confirms it.
package device
