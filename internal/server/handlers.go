package server

import (
	"github.com/sirupsen/logrus"

	"github.com/dictkv/dictkv/internal/persistence"
	"github.com/dictkv/dictkv/internal/protocol"
	"github.com/dictkv/dictkv/internal/stats"
	"github.com/dictkv/dictkv/internal/store"
)

func (s *Server) execute(req protocol.Request) protocol.Reply {
	return Dispatch(s.st, s.wlog, s.metrics, s.cfg.BufferSize, req)
}

// Dispatch executes one parsed request against the store. Store failures on
// SET surface as an OS error; GET and DEL report any failure as not found,
// whatever the underlying cause.
func Dispatch(st store.Store, wlog *persistence.Log, metrics *stats.Metrics, bufSize int, req protocol.Request) protocol.Reply {
	switch req.Op {
	case protocol.OpSet:
		if wlog != nil {
			if err := wlog.Append(persistence.Record{
				Op:    persistence.OpSet,
				Key:   req.Key,
				Value: []byte(req.Value),
			}); err != nil {
				logrus.Errorf("cannot log write for key [%s]: %v", req.Key, err)
				metrics.RecordRequest(protocol.TagSet, "error")
				return protocol.Reply{Status: protocol.StatusError, Code: protocol.CodeOS}
			}
		}
		if err := st.Set(req.Key, []byte(req.Value)); err != nil {
			logrus.Errorf("cannot open file [%s] to write key: %v", req.Key, err)
			metrics.RecordRequest(protocol.TagSet, "error")
			return protocol.Reply{Status: protocol.StatusError, Code: protocol.CodeOS}
		}
		metrics.RecordRequest(protocol.TagSet, "ok")
		return protocol.Reply{Status: protocol.StatusOK}

	case protocol.OpGet:
		val, err := st.Get(req.Key, bufSize)
		if err != nil {
			logrus.Errorf("cannot open file [%s] to read key: %v", req.Key, err)
			metrics.RecordRequest(protocol.TagGet, "notfound")
			return protocol.Reply{Status: protocol.StatusNotFound}
		}
		logrus.Infof("read %d bytes from [%s] file", len(val), req.Key)
		metrics.RecordRequest(protocol.TagGet, "ok")
		return protocol.Reply{Status: protocol.StatusOK, Value: val}

	case protocol.OpDel:
		if wlog != nil {
			if err := wlog.Append(persistence.Record{
				Op:  persistence.OpDel,
				Key: req.Key,
			}); err != nil {
				logrus.Errorf("cannot log delete for key [%s]: %v", req.Key, err)
				metrics.RecordRequest(protocol.TagDel, "error")
				return protocol.Reply{Status: protocol.StatusError, Code: protocol.CodeOS}
			}
		}
		if err := st.Del(req.Key); err != nil {
			logrus.Errorf("cannot delete [%s] file: %v", req.Key, err)
			metrics.RecordRequest(protocol.TagDel, "notfound")
			return protocol.Reply{Status: protocol.StatusNotFound}
		}
		metrics.RecordRequest(protocol.TagDel, "ok")
		return protocol.Reply{Status: protocol.StatusOK}

	default:
		return protocol.Reply{Status: protocol.StatusNotFound}
	}
}
