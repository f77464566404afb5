package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/dictkv/dictkv/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	if flag.NArg() > 0 {
		if err := roundTrip(conn, reader, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("dictkv> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		if strings.EqualFold(args[0], "QUIT") || strings.EqualFold(args[0], "EXIT") {
			return
		}
		if err := roundTrip(conn, reader, args); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return
		}
	}
}

// roundTrip sends one frame and prints the reply. Parse errors are silent on
// the server side, so invalid input would hang a read; validate arity first.
func roundTrip(conn net.Conn, reader *bufio.Reader, args []string) error {
	tag := strings.ToUpper(args[0])
	switch tag {
	case protocol.TagSet:
		if len(args) != 3 {
			return fmt.Errorf("usage: SET key value")
		}
	case protocol.TagGet, protocol.TagDel:
		if len(args) != 2 {
			return fmt.Errorf("usage: %s key", tag)
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	frame := tag + " " + strings.Join(args[1:], " ") + "\n"
	if len(frame) > protocol.DefaultFrameSize {
		return fmt.Errorf("frame exceeds %d bytes", protocol.DefaultFrameSize)
	}
	if _, err := conn.Write([]byte(frame)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	rep, err := protocol.ReadReply(reader, tag == protocol.TagGet)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	switch rep.Status {
	case protocol.StatusOK:
		if rep.Value != nil {
			fmt.Printf("OK %s\n", rep.Value)
		} else {
			fmt.Println("OK")
		}
	case protocol.StatusNotFound:
		fmt.Println("NOTFOUND")
	case protocol.StatusError:
		fmt.Printf("ERROR:%d\n", rep.Code)
	}
	return nil
}
