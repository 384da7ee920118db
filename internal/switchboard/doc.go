// Package switchboard holds the static route table the web front end
// dispatches on. The table is preset data: it is never read from
// configuration units and never written to the local override.
package switchboard
