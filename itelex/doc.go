/*
Package itelex implements an outgoing i-Telex connection as a telex.Device.

A Client dials i-Telex stations found through a directory.Resolver and relays
characters between the local poll loop and the remote station. Each dial runs
as a background task; the poll loop only ever touches lock-free queues and the
atomic connection state, so Read and Write never block.

# Wire protocol

Baudot stations exchange packets of the form

	[type][length][payload...]

where type is below 10 and length counts the payload bytes only. ASCII stations
exchange raw characters. The client speaks protocol version 1 and implements:

  - Heartbeat (0), Direct Dial (1), Baudot Data (2), End (3), Reject (4),
    Acknowledge (6), Version (7), Self Test (8) and Remote Config (9).

# Session

While connected the session reads one byte at a time with a short read
deadline. Every deadline that expires without input is a transmit opportunity:
queued characters are sent as one Baudot Data packet (Baudot stations) or as a
single raw character (ASCII stations).

Typical usage:

	client, err := itelex.NewClient(itelex.WithLogger(l))
	if err != nil {
		return err
	}
	defer client.Close(time.Second)

	client.Write(telex.DialCommand("234200"), telex.SourceSerialLine)
	for {
		if token, ok := client.Read(); ok {
			// forward token
		}
	}
*/
package itelex
