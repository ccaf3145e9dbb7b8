// Package helper implements the git remote helper side of the bridge:
// the line-oriented conversation a host git process holds with
// git-remote-nostr over stdin/stdout.
package helper

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadLine reads one protocol line and splits it into tokens. Tokens are
// separated by single spaces; empty tokens are dropped. An empty token
// slice means an empty line, or end of input when err is io.EOF.
func ReadLine(in *bufio.Reader) ([]string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	var tokens []string
	for _, t := range strings.Split(strings.TrimSpace(line), " ") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

// CollectFetchBatch accumulates a fetch command batch. git sends one
// `fetch <oid> <refstr>` line per ref and terminates the batch with an
// empty line; anything else is a protocol error. The returned map is
// refstr to oid.
func CollectFetchBatch(in *bufio.Reader, initialOid, initialRef string) (map[string]string, error) {
	batch := map[string]string{initialRef: initialOid}
	for {
		tokens, err := ReadLine(in)
		if err != nil && err != io.EOF {
			return nil, err
		}
		switch {
		case len(tokens) == 0:
			return batch, nil
		case len(tokens) == 3 && tokens[0] == "fetch":
			batch[tokens[2]] = tokens[1]
		default:
			return nil, fmt.Errorf("after a `fetch` command we are only expecting another fetch or an empty line")
		}
	}
}

// CollectPushBatch accumulates `push <src>:<dst>` refspecs the same way.
func CollectPushBatch(in *bufio.Reader, initialRefspec string) ([]string, error) {
	batch := []string{initialRefspec}
	for {
		tokens, err := ReadLine(in)
		if err != nil && err != io.EOF {
			return nil, err
		}
		switch {
		case len(tokens) == 0:
			return batch, nil
		case len(tokens) == 2 && tokens[0] == "push":
			batch = append(batch, tokens[1])
		default:
			return nil, fmt.Errorf("after a `push` command we are only expecting another push or an empty line")
		}
	}
}
