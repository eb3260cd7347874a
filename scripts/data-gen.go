/*
	Traffic generator for the decoder. Workers open raw connections and send a
	weighted mix of hand-built frames: both encodings, frames that carry no
	command, lenient length mismatches and bad counts that make the server
	hang up. Watch the frame outcome metrics and logs while it runs.
*/

package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xRadioAc7iv/go-cmdwire/internal"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
)

const (
	concurrency     = 6
	framesPerWorker = 20000
	totalKeys       = 100

	dialTimeout   = 2 * time.Second
	replyTimeout  = 5 * time.Second
	progressEvery = 5000
)

// scenario builds one kind of frame. hangsUp marks frames the server answers
// and then closes the connection on.
type scenario struct {
	name    string
	weight  int
	hangsUp bool
	frame   func(rng *rand.Rand, key string) []byte
}

var scenarios = []scenario{
	{name: "array set", weight: 30, frame: func(rng *rand.Rand, key string) []byte {
		b, _ := protocol.EncodeArray("SET", key, fmt.Sprintf("v %d", rng.Intn(1000)))
		return b
	}},
	{name: "array get", weight: 20, frame: func(_ *rand.Rand, key string) []byte {
		b, _ := protocol.EncodeArray("GET", key)
		return b
	}},
	{name: "inline set", weight: 15, frame: func(rng *rand.Rand, key string) []byte {
		return []byte(fmt.Sprintf("set %s %d\r\n", key, rng.Intn(1000)))
	}},
	{name: "inline exists", weight: 10, frame: func(_ *rand.Rand, key string) []byte {
		return []byte("EXISTS " + key + " missing\r\n")
	}},
	{name: "spaced count", weight: 5, frame: func(_ *rand.Rand, key string) []byte {
		return []byte(fmt.Sprintf("* 2 \r\n$3\r\nDEL\r\n$%d\r\n%s\r\n", len(key), key))
	}},
	// Only a lenient server answers this one; a strict one hangs up.
	{name: "length mismatch", weight: 8, frame: func(_ *rand.Rand, key string) []byte {
		return []byte("*2\r\n$9\r\nECHO\r\n$1\r\n" + key + "\r\n")
	}},
	{name: "no command", weight: 8, frame: func(rng *rand.Rand, _ string) []byte {
		if rng.Intn(2) == 0 {
			return []byte("*2\r\nfoo\r\nbar\r\n")
		}
		return []byte("   \r\n")
	}},
	{name: "bad count", weight: 4, hangsUp: true, frame: func(_ *rand.Rand, _ string) []byte {
		return []byte("*x\r\n")
	}},
}

type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func (t *tally) add(name string) {
	t.mu.Lock()
	t.counts[name]++
	t.mu.Unlock()
}

func main() {
	start := time.Now()
	addr := internal.DefaultConfig().Addr()
	fmt.Printf("Driving decoder traffic at %s\n", addr)

	keys := make([]string, totalKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}

	sent := &tally{counts: make(map[string]int)}
	var reconnects atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, addr, keys, sent, &reconnects)
		}(i)
	}

	wg.Wait()

	names := make([]string, 0, len(sent.counts))
	for name := range sent.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-16s %d\n", name, sent.counts[name])
	}
	fmt.Printf("Reconnects: %d\n", reconnects.Load())
	fmt.Printf("Load finished in %v\n", time.Since(start))
}

func runWorker(id int, addr string, keys []string, sent *tally, reconnects *atomic.Int64) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	var conn net.Conn
	var replies *protocol.ReplyReader
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for n := 1; n <= framesPerWorker; n++ {
		if conn == nil {
			c, err := net.DialTimeout("tcp", addr, dialTimeout)
			if err != nil {
				fmt.Printf("[worker %d] connect error: %v\n", id, err)
				return
			}
			conn = c
			replies = protocol.NewReplyReader(bufio.NewReader(c))
		}

		sc := pick(rng)
		frame := sc.frame(rng, keys[rng.Intn(len(keys))])

		_ = conn.SetDeadline(time.Now().Add(replyTimeout))
		if _, err := conn.Write(frame); err != nil {
			fmt.Printf("[worker %d] %s write error: %v\n", id, sc.name, err)
			return
		}
		reply, err := replies.ReadReply()
		if err != nil {
			fmt.Printf("[worker %d] %s reply error: %v\n", id, sc.name, err)
			return
		}
		sent.add(sc.name)

		if sc.hangsUp {
			if !reply.IsError() {
				fmt.Printf("[worker %d] %s: expected error reply, got %s\n", id, sc.name, reply)
			}
			conn.Close()
			conn = nil
			reconnects.Add(1)
		}

		if n%progressEvery == 0 {
			fmt.Printf("[worker %d] sent %d frames\n", id, n)
		}
	}
}

func pick(rng *rand.Rand) scenario {
	total := 0
	for _, sc := range scenarios {
		total += sc.weight
	}

	n := rng.Intn(total)
	for _, sc := range scenarios {
		if n < sc.weight {
			return sc
		}
		n -= sc.weight
	}
	return scenarios[len(scenarios)-1]
}
