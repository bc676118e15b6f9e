package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RedisConfig captures the connection parameters for the lightweight Redis client.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const defaultRedisTimeout = 5 * time.Second
const redisKeyPrefix = "vibeplanner:"

// RedisClient speaks the small subset of the Redis protocol the API needs:
// AUTH, SELECT, INCR, PEXPIRE, PTTL, GET, SET (with PX) and DEL. It keeps a
// single connection guarded by a mutex and reconnects on failure.
type RedisClient struct {
	cfg RedisConfig

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewRedisClient dials eagerly so misconfiguration surfaces at startup.
func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	client := &RedisClient{cfg: cfg}

	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.connectLocked(context.Background()); err != nil {
		return nil, err
	}
	return client, nil
}

// Close closes the underlying network connection.
func (c *RedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// IncrementWithTTL increments the key and ensures its TTL matches the window.
func (c *RedisClient) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	prefixedKey := c.prefixed(key)
	count, err := c.commandInt(ctx, "INCR", prefixedKey)
	if err != nil {
		return 0, 0, err
	}

	// Only the first increment of a window attaches the expiry; later ones
	// must not extend it.
	if count == 1 {
		if _, err := c.commandInt(ctx, "PEXPIRE", prefixedKey, millisArg(window)); err != nil {
			return 0, 0, err
		}
	}

	ttlMillis, err := c.commandInt(ctx, "PTTL", prefixedKey)
	if err != nil || ttlMillis < 0 {
		return count, window, nil
	}
	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}

// Set stores a value with PX expiry semantics.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.commandStatus(ctx, "SET", c.prefixed(key), string(value), "PX", millisArg(ttl))
	return err
}

// Get retrieves the value associated with a key.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := c.command(ctx, "GET", c.prefixed(key))
	if err != nil {
		return nil, false, err
	}

	switch v := reply.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return v, true, nil
	default:
		return nil, false, fmt.Errorf("redis: unexpected response type %T", v)
	}
}

// Delete removes one or more keys, ignoring missing keys.
func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]string, 1, len(keys)+1)
	args[0] = "DEL"
	for _, key := range keys {
		args = append(args, c.prefixed(key))
	}
	_, err := c.command(ctx, args...)
	return err
}

func (c *RedisClient) prefixed(key string) string {
	normalized := normalizeKey(key)
	if strings.HasPrefix(normalized, redisKeyPrefix) {
		return normalized
	}
	return normalizeKey(redisKeyPrefix + normalized)
}

// commandStatus runs a command whose reply must be a simple string.
func (c *RedisClient) commandStatus(ctx context.Context, args ...string) (string, error) {
	reply, err := c.command(ctx, args...)
	if err != nil {
		return "", err
	}
	status, ok := reply.(string)
	if !ok {
		return "", fmt.Errorf("redis: unexpected simple response %T", reply)
	}
	return status, nil
}

// commandInt runs a command whose reply must carry an integer, either as a
// RESP integer or as a numeric bulk string.
func (c *RedisClient) commandInt(ctx context.Context, args ...string) (int64, error) {
	reply, err := c.command(ctx, args...)
	if err != nil {
		return 0, err
	}
	switch v := reply.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("redis: unexpected integer response %T", v)
	}
}

// command serialises one request/response exchange on the shared connection.
// Any wire error drops the connection so the next call redials.
func (c *RedisClient) command(ctx context.Context, args ...string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}

	if err := c.conn.SetDeadline(callDeadline(ctx, c.cfg.Timeout)); err != nil {
		c.dropConnLocked()
		return nil, err
	}

	if _, err := c.conn.Write(encodeCommand(args)); err != nil {
		c.dropConnLocked()
		return nil, err
	}

	reply, err := readReply(c.reader)
	if err != nil {
		c.dropConnLocked()
		return nil, err
	}
	return reply, nil
}

func (c *RedisClient) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		conn net.Conn
		err  error
	)
	if c.cfg.TLS {
		dialer := &tls.Dialer{NetDialer: &net.Dialer{}}
		conn, err = dialer.DialContext(ctx, "tcp", c.cfg.Address)
	} else {
		dialer := &net.Dialer{}
		conn, err = dialer.DialContext(ctx, "tcp", c.cfg.Address)
	}
	if err != nil {
		return err
	}

	reader := bufio.NewReader(conn)
	if err := conn.SetDeadline(callDeadline(ctx, c.cfg.Timeout)); err != nil {
		conn.Close()
		return err
	}

	if c.cfg.Password != "" || c.cfg.Username != "" {
		authArgs := []string{"AUTH"}
		if c.cfg.Username != "" {
			authArgs = append(authArgs, c.cfg.Username, c.cfg.Password)
		} else {
			authArgs = append(authArgs, c.cfg.Password)
		}
		if err := expectOK(conn, reader, authArgs); err != nil {
			conn.Close()
			return fmt.Errorf("redis: AUTH failed: %w", err)
		}
	}

	if c.cfg.DB > 0 {
		if err := expectOK(conn, reader, []string{"SELECT", strconv.Itoa(c.cfg.DB)}); err != nil {
			conn.Close()
			return fmt.Errorf("redis: SELECT failed: %w", err)
		}
	}

	// Clear the handshake deadline; runtime commands set per-call deadlines.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.reader = reader
	return nil
}

func (c *RedisClient) dropConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
}

// expectOK sends a handshake command and requires an OK reply.
func expectOK(conn net.Conn, reader *bufio.Reader, args []string) error {
	if _, err := conn.Write(encodeCommand(args)); err != nil {
		return err
	}
	reply, err := readReply(reader)
	if err != nil {
		return err
	}
	if status, ok := reply.(string); !ok || !strings.EqualFold(status, "OK") {
		return fmt.Errorf("unexpected reply %v", reply)
	}
	return nil
}

func callDeadline(ctx context.Context, fallback time.Duration) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Now().Add(fallback)
}

// encodeCommand renders the arguments as a RESP array of bulk strings.
func encodeCommand(args []string) []byte {
	var buf []byte
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, arg := range args {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, arg...)
		buf = append(buf, '\r', '\n')
	}
	return buf
}

// readReply decodes one RESP value: simple strings and errors map to string
// and error, integers to int64, bulk strings to []byte (nil bulk to nil) and
// arrays to []interface{}.
func readReply(r *bufio.Reader) (interface{}, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	line, err := readRespLine(r)
	if err != nil {
		return nil, err
	}

	switch prefix {
	case '+':
		return line, nil
	case '-':
		return nil, errors.New(line)
	case ':':
		return strconv.ParseInt(line, 10, 64)
	case '$':
		return readBulk(r, line)
	case '*':
		return readArray(r, line)
	default:
		return nil, fmt.Errorf("redis: unexpected prefix %q", prefix)
	}
}

func readBulk(r *bufio.Reader, header string) (interface{}, error) {
	length, err := strconv.Atoi(header)
	if err != nil {
		return nil, err
	}
	if length == -1 {
		return nil, nil
	}
	buf := make([]byte, length+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[length] != '\r' || buf[length+1] != '\n' {
		return nil, errors.New("redis: expected CRLF")
	}
	return buf[:length], nil
}

func readArray(r *bufio.Reader, header string) (interface{}, error) {
	count, err := strconv.Atoi(header)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, count)
	for i := range items {
		item, err := readReply(r)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func readRespLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// normalizeKey collapses accidental double colons from joined key segments.
func normalizeKey(key string) string {
	for strings.Contains(key, "::") {
		key = strings.ReplaceAll(key, "::", ":")
	}
	return key
}

func millisArg(duration time.Duration) string {
	if duration <= 0 {
		return "0"
	}
	return strconv.FormatInt(duration.Milliseconds(), 10)
}
