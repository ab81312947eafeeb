package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"github.com/Thashar/Stalker-sub001/internal/daemon"
	"github.com/Thashar/Stalker-sub001/internal/logging"
)

// serviceName is the JSON-RPC service the daemon registers on the socket.
const serviceName = "Stalker"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, socketPath: path, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon     *daemon.Daemon
	socketPath string
	logger     *slog.Logger
	ctx        context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = fromDaemonStatus(s.daemon.Status(s.ctx), s.socketPath)
	return nil
}

func (s *service) Decay(_ DecayRequest, resp *DecayResponse) error {
	s.log().Debug("decay run requested")
	result, err := s.daemon.RunDecay(s.ctx)
	if err != nil {
		return err
	}
	resp.WeekKey = result.WeekKey
	resp.AlreadyRan = result.AlreadyRan
	resp.CleanedUsers = result.CleanedUsers
	resp.RemovedUsers = result.RemovedUsers
	return nil
}

func (s *service) PunishAdd(req PunishAddRequest, resp *PunishAddResponse) error {
	record, err := s.daemon.AddPunishment(s.ctx, req.GuildID, req.UserID, req.Points, req.Reason)
	if err != nil {
		return err
	}
	resp.Points = record.Points
	s.log().Info("penalty points added via IPC",
		logging.String(logging.FieldGuildID, req.GuildID),
		logging.String(logging.FieldUserID, req.UserID),
		logging.Int("points", record.Points),
		logging.String(logging.FieldEventType, "punish_add"))
	return nil
}

func (s *service) PunishRemove(req PunishRemoveRequest, resp *PunishRemoveResponse) error {
	record, err := s.daemon.RemovePunishment(s.ctx, req.GuildID, req.UserID, req.Points)
	if err != nil {
		return err
	}
	if record == nil {
		resp.Found = false
		return nil
	}
	resp.Found = true
	resp.Points = record.Points
	s.log().Info("penalty points removed via IPC",
		logging.String(logging.FieldGuildID, req.GuildID),
		logging.String(logging.FieldUserID, req.UserID),
		logging.Int("points", record.Points),
		logging.String(logging.FieldEventType, "punish_remove"))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
