package proto

import (
	"net"
	"strings"
)

// ReportEntry renders one participant line for a status reply.
func ReportEntry(nickname, remoteAddr string) string {
	host, port, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host, port = remoteAddr, ""
	}
	return nickname + " at IP: " + host + " and port: " + port
}

// ReportReply joins entries into the status reply, or returns TokenNoUsers.
func ReportReply(entries []string) string {
	if len(entries) == 0 {
		return TokenNoUsers
	}
	return strings.Join(entries, ",")
}
