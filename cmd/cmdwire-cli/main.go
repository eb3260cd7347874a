package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/0xRadioAc7iv/go-cmdwire/cmdwire"
	"github.com/0xRadioAc7iv/go-cmdwire/internal"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/logging"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

const localHelp = `Type any server command, e.g. SET city "new york".
Words are split like a shell: quotes group, backslashes escape.
  help   show this text and the server's command list
  exit   leave the prompt`

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "cmdwire server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "cmdwire server port")
	inline := flag.Bool("inline", false, "Send commands as inline lines instead of arrays")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-request timeout")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := logging.New("cli")

	opts := []cmdwire.Option{
		cmdwire.WithHost(*host),
		cmdwire.WithPort(*port),
		cmdwire.WithTimeout(*timeout),
	}
	if *inline {
		opts = append(opts, cmdwire.WithInline())
	}

	client, err := cmdwire.Connect(opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect failed")
	}
	defer client.Close()

	fmt.Printf("Connected to %v:%d\n", *host, *port)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Println("input error:", err)
			}
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return
		}

		if line == "help" {
			fmt.Println(localHelp)
			fmt.Println()
			line = "HELP"
		}

		words, err := shellquote.Split(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		reply, err := client.Do(words[0], words[1:]...)
		if errors.Is(err, protocol.ErrUnencodableToken) {
			fmt.Println("cannot send inline:", err)
			continue
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("request failed")
		}

		// HELP comes back as one bulk string; print it raw.
		if reply.Kind == protocol.KindBulk && strings.EqualFold(words[0], "help") {
			fmt.Println(reply.Str)
		} else {
			fmt.Println(reply.String())
		}

		if strings.EqualFold(words[0], "quit") {
			return
		}
	}
}
