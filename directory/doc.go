// Package directory resolves dialed teleprinter numbers to i-Telex endpoints.
//
// Two sources are consulted in order: a local table loaded once from a
// delimited text file, then the remote directory server (the Telex Number
// Server). Lookups never fail loudly; any I/O or parse problem is logged and
// reported as "not found" so callers simply try their next strategy.
//
// # Local table
//
// The file starts with a header naming the columns in any order:
//
//	nick,tnum,extn,type,host,port,name
//	FABLAB, 234200, -, I, fablab.example.org, 2342, "FabLab, Wuerzburg"
//
// The long names nickname, number and extension are accepted as well. The
// delimiter (comma, semicolon or tab) is sniffed from the header line. Type A
// marks an ASCII station, anything else a Baudot station.
//
// # Directory server protocol
//
// The client sends "q<number>\r\n" and the server answers with CRLF delimited
// fields terminated by "+++":
//
//	ok
//	234200
//	FabLab, Wuerzburg
//	1
//	fablab.example.org
//	2342
//	-
//	+++
//
// Fields are status, number, name, type code, host, port and extension. Type
// codes 3 and 4 denote ASCII stations.
package directory
