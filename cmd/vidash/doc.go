// Command vidash is the terminal client for the video dashboard.
//
// Viewers sign in, list their assigned videos and watch them in a terminal
// player that records one view per load. Admins manage videos, assign them
// to users and browse the activity log with filters, paging and a debounced
// username search. A mock API server is included for local development.
package main
