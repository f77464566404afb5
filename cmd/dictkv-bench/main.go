package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dictkv/dictkv/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "server address")
	conns := flag.Int("conns", 1, "concurrent connections (server default is serial)")
	ops := flag.Int("ops", 10000, "total operations")
	ratioGet := flag.Float64("ratio_get", 0.8, "get ratio")
	valueSize := flag.Int("value_size", 32, "value size bytes")
	flag.Parse()

	if *conns <= 0 {
		fmt.Fprintln(os.Stderr, "conns must be > 0")
		os.Exit(1)
	}
	// Tag, two separators, and key share the frame with the value.
	maxValue := protocol.DefaultFrameSize - 16
	if *valueSize > maxValue {
		fmt.Fprintf(os.Stderr, "value_size capped at %d\n", maxValue)
		*valueSize = maxValue
	}

	value := strings.Repeat("x", *valueSize)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key:%d", i)
	}

	var opsDone atomic.Int64
	latCh := make(chan time.Duration, *ops)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *conns; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", *addr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "dial: %v\n", err)
				return
			}
			defer conn.Close()
			reader := bufio.NewReader(conn)
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
			for {
				idx := int(opsDone.Add(1)) - 1
				if idx >= *ops {
					return
				}
				key := keys[rng.Intn(len(keys))]
				isGet := rng.Float64() < *ratioGet
				var frame string
				if isGet {
					frame = protocol.TagGet + " " + key + "\n"
				} else {
					frame = protocol.TagSet + " " + key + " " + value + "\n"
				}
				t0 := time.Now()
				if _, err := conn.Write([]byte(frame)); err != nil {
					return
				}
				if _, err := protocol.ReadReply(reader, isGet); err != nil {
					return
				}
				latCh <- time.Since(t0)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(latCh)

	lats := make([]time.Duration, 0, *ops)
	for d := range latCh {
		lats = append(lats, d)
	}
	if len(lats) == 0 {
		fmt.Fprintln(os.Stderr, "no operations completed")
		os.Exit(1)
	}
	sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })

	fmt.Printf("ops: %d in %v (%.0f op/s)\n", len(lats), elapsed, float64(len(lats))/elapsed.Seconds())
	fmt.Printf("p50: %v  p95: %v  p99: %v  max: %v\n",
		lats[len(lats)/2],
		lats[len(lats)*95/100],
		lats[len(lats)*99/100],
		lats[len(lats)-1])
}
