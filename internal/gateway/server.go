package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"hftcore/internal/common"
	"hftcore/internal/engine"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("gateway: improper task conversion")
)

// clientSession tracks one connected TCP client, keyed by remote address.
type clientSession struct {
	conn    net.Conn
	agentID string
}

// Server is the binary TCP front end over an Engine: an accept loop handing
// connections to a worker pool, tracking each connection's session by
// remote address, and fanning trade reports out to the sessions of both
// counterparties as Drain produces them.
type Server struct {
	address string
	port    int
	engine  *engine.Engine
	pool    workerPool
	logger  zerolog.Logger

	directory *symbolDirectory

	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]*clientSession
}

// New constructs a Server bound to address:port, serving eng.
func New(address string, port int, eng *engine.Engine, symbols []string, logger zerolog.Logger) *Server {
	return &Server{
		address:   address,
		port:      port,
		engine:    eng,
		pool:      newWorkerPool(defaultNWorkers, logger),
		logger:    logger,
		directory: newSymbolDirectory(symbols),
		sessions:  make(map[string]*clientSession),
	}
}

// Shutdown cancels the server's run context.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is cancelled. It registers a trade
// callback with the engine so fills are reported to both counterparties as
// they are produced by Drain, and blocks until the listener is closed.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	s.engine.AddTradeCallback(s.onTrade)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}
	defer listener.Close()

	// Close the listener on cancellation so a blocked Accept returns.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	t.Go(func() error {
		s.pool.setup(t, s.handleConnection)
		return nil
	})

	s.logger.Info().Str("address", listener.Addr().String()).Msg("gateway listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Error().Err(err).Msg("gateway accept failed")
				continue
			}
		}

		s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("gateway client connected")
		s.addSession(conn)
		s.pool.addTask(conn)
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = &clientSession{conn: conn}
}

func (s *Server) removeSession(address string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, address)
}

// handleConnection reads and actions exactly one message from conn, then
// resubmits it as a task so the next message gets its turn in the pool.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		s.logger.Error().Err(err).Msg("gateway failed to set connection deadline")
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.removeSession(conn.RemoteAddr().String())
		return nil
	}

	msg, err := ParseMessage(buf[:n])
	if err != nil {
		s.logger.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("gateway failed to parse message")
		conn.Write(errorReport(err))
		s.pool.addTask(conn)
		return nil
	}

	if err := s.handleMessage(conn, msg); err != nil {
		s.logger.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("gateway failed to handle message")
		conn.Write(errorReport(err))
	}

	s.pool.addTask(conn)
	return nil
}

func (s *Server) handleMessage(conn net.Conn, msg Message) error {
	switch m := msg.(type) {
	case NewOrderMessage:
		if !s.directory.Has(m.Symbol) {
			return fmt.Errorf("gateway: %w: %s", engine.ErrUnknownSymbol, m.Symbol)
		}
		order, err := m.Order()
		if err != nil {
			return err
		}
		s.trackAgent(conn, order.AgentID)
		orderID, err := s.engine.Submit(order)
		if err != nil {
			return err
		}
		conn.Write(ackReport(orderID))
		return nil
	case CancelOrderMessage:
		s.trackAgent(conn, m.AgentID)
		s.engine.Cancel(m.AgentID, m.OrderID)
		return nil
	case baseMessage:
		return nil
	default:
		return ErrImproperConversion
	}
}

func (s *Server) trackAgent(conn net.Conn, agentID string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if sess, ok := s.sessions[conn.RemoteAddr().String()]; ok {
		sess.agentID = agentID
	}
}

// onTrade is registered with the engine and fans a pair of execution
// reports out to whichever of the trade's two agents currently hold an open
// session.
func (s *Server) onTrade(trade common.Trade) {
	buyerReport, sellerReport := tradeReports(trade)

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for _, sess := range s.sessions {
		switch sess.agentID {
		case trade.BuyerAgentID:
			sess.conn.Write(buyerReport)
		case trade.SellerAgentID:
			sess.conn.Write(sellerReport)
		}
	}
}
