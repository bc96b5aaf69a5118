// Package net publishes a running engine to browsers: a websocket stroke
// feed, a viewer page, a small control API and mDNS discovery.
package net

import (
	"fmt"
	"net"
	"strconv"
)

// GetOutgoingIP finds the local address other machines can reach us on.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route to the internet; look at the interfaces instead.
		return localIPFallback()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

func localIPFallback() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "127.0.0.1", nil
}

// ShareURL is the viewer address to print for a feed listening on addr.
func ShareURL(addr string) (string, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return "", fmt.Errorf("bad port in %q", addr)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host, err = GetOutgoingIP()
		if err != nil {
			return "", err
		}
	}
	return "http://" + net.JoinHostPort(host, portStr) + "/", nil
}

// Port extracts the numeric port of a listen address such as ":8888".
func Port(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
