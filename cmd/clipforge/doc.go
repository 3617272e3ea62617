// Command clipforge is the CLI for a running clipforged daemon: submit
// configurations, watch progress, list and cancel jobs, and inspect stats.
package main
