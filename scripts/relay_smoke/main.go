package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("relay_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:18000", "relay TCP address")
	user := flag.String("user", "tester", "nickname to register")
	text := flag.String("text", "hello from smoke test", "message text to send")
	file := flag.String("file", "", "optional attachment name; its payload is -text")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(*timeout)); err != nil {
		return err
	}

	codec := proto.NewCodec(conn, 0)
	send := func(frame string) error {
		return codec.WriteFrame(frame)
	}
	recv := func() (string, error) {
		frame, err := codec.ReadFrame()
		if err == nil {
			fmt.Printf("<- %s\n", frame)
		}
		return frame, err
	}

	if err := send(proto.MarkerReport); err != nil {
		return err
	}
	if _, err := recv(); err != nil {
		return err
	}

	if err := send(proto.MarkerJoin); err != nil {
		return err
	}
	reply, err := recv()
	if err != nil {
		return err
	}
	if reply != proto.TokenAccepted {
		return errors.New("server is full")
	}

	if err := send(proto.Register(*user)); err != nil {
		return err
	}
	if reply, err = recv(); err != nil {
		return err
	}
	if reply != proto.TokenAccepted {
		return fmt.Errorf("registration rejected: %s", reply)
	}

	// Drain welcome, history and our own join notice.
	for {
		frame, err := recv()
		if err != nil {
			return err
		}
		if strings.HasSuffix(frame, *user+" has connected to the server.") {
			break
		}
	}

	line := fmt.Sprintf("%s %s: %s", time.Now().Format("[15:04:05]"), *user, *text)
	if *file != "" {
		if err := send(proto.EncodeAttachment(*file, line)); err != nil {
			return err
		}
	} else if err := send(line); err != nil {
		return err
	}

	if _, err := recv(); err != nil {
		return err
	}
	if *file != "" {
		directive, err := recv()
		if err != nil {
			return err
		}
		name, payload, ok := proto.ParseDirective(directive)
		if !ok {
			return fmt.Errorf("unexpected directive %q", directive)
		}
		fmt.Printf("attachment %s (%d bytes) ready for download\n", name, len(payload))
		if err := send(proto.MarkerDownloadDone); err != nil {
			return err
		}
	}

	return send(proto.MarkerQuit)
}
