package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dictkv/dictkv/internal/persistence"
	"github.com/dictkv/dictkv/internal/protocol"
	"github.com/dictkv/dictkv/internal/server"
	"github.com/dictkv/dictkv/internal/stats"
	dstore "github.com/dictkv/dictkv/internal/store"
)

// dictkv-gateway bridges the frame protocol onto WebSocket and keeps the
// keyspace durable across restarts by archiving the write log to a GCS
// object: downloaded and replayed at startup, re-uploaded after every
// mutation.

const (
	defaultDataDir = "/tmp/dictkv-gateway"
	defaultObject  = "dictkv.log"
)

func main() {
	port := getenv("PORT", "8080")
	dataDir := getenv("DICTKV_DATA_DIR", defaultDataDir)
	bucket := os.Getenv("DICTKV_BUCKET")
	object := getenv("DICTKV_OBJECT", defaultObject)

	if bucket == "" {
		logrus.Fatal("DICTKV_BUCKET is required for persistence")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("data dir: %v", err)
	}

	ctx := context.Background()
	archive, err := newLogArchive(ctx, bucket, object)
	if err != nil {
		logrus.Fatalf("gcs client: %v", err)
	}

	logPath := persistence.LogPath(dataDir)
	if err := archive.Download(ctx, logPath); err != nil {
		logrus.Fatalf("download log: %v", err)
	}

	wlog, err := persistence.OpenLog(dataDir, persistence.Options{Fsync: true})
	if err != nil {
		logrus.Fatalf("open log: %v", err)
	}
	defer wlog.Close()

	st := dstore.NewMemStore()
	if err := persistence.Replay(logPath, st); err != nil {
		logrus.Fatalf("replay log: %v", err)
	}
	logrus.Infof("replayed write log, %d keys live", st.Len())

	metrics := stats.New()
	handler := &wsHandler{
		st:      st,
		wlog:    wlog,
		metrics: metrics,
		archive: archive,
		logPath: logPath,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", handler.handleWS)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logrus.Infof("dictkv gateway listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("gateway error: %v", err)
	}
}

type wsHandler struct {
	st      dstore.Store
	wlog    *persistence.Log
	metrics *stats.Metrics
	archive *logArchive
	logPath string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleWS serves one WebSocket session. Each text message carries one frame;
// unlike the TCP server, malformed frames are answered with their error code
// so browser clients are not left waiting.
func (h *wsHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	h.metrics.RecordConnection()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if len(payload) > protocol.DefaultFrameSize {
			payload = payload[:protocol.DefaultFrameSize]
		}

		req, perr := protocol.ParseFrame(payload)
		if perr != nil {
			code, _ := protocol.WireCode(perr)
			h.metrics.RecordParseError(strconv.Itoa(int(code)))
			rep := protocol.Reply{Status: protocol.StatusError, Code: code}
			if err := writeReply(conn, rep); err != nil {
				return
			}
			continue
		}

		rep := server.Dispatch(h.st, h.wlog, h.metrics, protocol.DefaultFrameSize, req)
		if req.Op == protocol.OpSet || req.Op == protocol.OpDel {
			if err := h.archive.Upload(r.Context(), h.logPath); err != nil {
				logrus.Errorf("archive upload: %v", err)
				rep = protocol.Reply{Status: protocol.StatusError, Code: protocol.CodeOS}
			}
		}
		if err := writeReply(conn, rep); err != nil {
			return
		}
	}
}

func writeReply(conn *websocket.Conn, rep protocol.Reply) error {
	var b strings.Builder
	if err := protocol.WriteReply(&b, rep); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(b.String()))
}

// logArchive mirrors the write log to a GCS object.
type logArchive struct {
	client *storage.Client
	bucket string
	object string
	mu     sync.Mutex
}

func newLogArchive(ctx context.Context, bucket, object string) (*logArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &logArchive{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

func (a *logArchive) Download(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	obj := a.client.Bucket(a.bucket).Object(a.object)
	rc, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (a *logArchive) Upload(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	obj := a.client.Bucket(a.bucket).Object(a.object)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
