package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"hmi-service/internal/logger"
	"hmi-service/internal/types"

	"github.com/redis/go-redis/v9"
)

// Redis keys and channels shared with the monitor, chassis and UI services
const (
	ChannelMonitor = "monitor"
	ChannelChassis = "chassis"
	ChannelHMI     = "hmi"

	KeyMonitorPrefix = "monitor:"
	KeyChassis       = "chassis"
	KeyHMI           = "hmi"
	KeyActionList    = "hmi:action"
	KeyPadCommands   = "control:pad"

	StreamDriveEvents  = "events:drive"
	StreamAudioCapture = "audio:capture"
)

const (
	driveEventMaxLen   = 1000
	audioCaptureMaxLen = 100
)

type Callbacks struct {
	SystemStatusCallback func(types.SystemStatus) error
	DrivingModeCallback  func(types.DrivingMode) error
	ActionCallback       func(action, value string) error // "change-mode:Standard", "reset-mode"
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(host string, port int, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

// Connect checks the connection and replays the last reported driving mode,
// so the HMI does not start out assuming manual while the vehicle is engaged.
func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Errorf("Redis connection failed: %v", err)
		return fmt.Errorf("redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")

	r.refreshDrivingMode()
	return nil
}

// StartListening starts the telemetry and action listeners
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, ChannelMonitor, ChannelChassis)
	r.logger.Infof("Subscribed to Redis channels: %s, %s", ChannelMonitor, ChannelChassis)

	r.wg.Add(2)
	go r.redisListener(pubsub)
	go r.listCommandListener(KeyActionList, r.handleActionCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
		}

		// Short timeout so cancellation is noticed between commands
		result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				r.logger.Infof("Context cancelled, exiting %s listener", key)
				return
			}
			r.logger.Warnf("Error reading from %s list: %v", key, err)
			continue
		}

		// BRPOP returns [key, value]
		if len(result) < 2 {
			continue
		}
		r.logger.Debugf("Received command from %s: %s", key, result[1])
		if err := handler(result[1]); err != nil {
			r.logger.Warnf("Error handling %s command %q: %v", key, result[1], err)
		}
	}
}

func (r *RedisClient) handleActionCommand(raw string) error {
	if r.callbacks.ActionCallback == nil {
		return nil
	}
	action, value, err := ParseActionCommand(raw)
	if err != nil {
		return err
	}
	return r.callbacks.ActionCallback(action, value)
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok || msg == nil {
				if r.ctx.Err() != nil {
					return
				}
				r.logger.Fatalf("Redis connection lost, exiting to allow systemd restart")
			}

			r.logger.Debugf("Received Redis message: channel=%s payload=%s", msg.Channel, msg.Payload)

			switch msg.Channel {
			case ChannelMonitor:
				r.processMonitorMessage(msg.Payload)
			case ChannelChassis:
				if msg.Payload == "driving-mode" {
					r.refreshDrivingMode()
				}
			}
		}
	}
}

// processMonitorMessage reads the health hash of the subsystem named in payload
func (r *RedisClient) processMonitorMessage(subsystem string) {
	if r.callbacks.SystemStatusCallback == nil || subsystem == "" {
		return
	}

	fields, err := r.client.HGetAll(r.ctx, KeyMonitorPrefix+subsystem).Result()
	if err != nil {
		r.logger.Warnf("Failed to read monitor state for %s: %v", subsystem, err)
		return
	}
	report, err := ParseHealthReport(fields)
	if err != nil {
		r.logger.Warnf("Invalid monitor state for %s: %v", subsystem, err)
		return
	}

	if err := r.callbacks.SystemStatusCallback(types.SystemStatus{subsystem: report}); err != nil {
		r.logger.Warnf("Failed to handle monitor update for %s: %v", subsystem, err)
	}
}

func (r *RedisClient) refreshDrivingMode() {
	if r.callbacks.DrivingModeCallback == nil {
		return
	}

	value, err := r.client.HGet(r.ctx, KeyChassis, "driving-mode").Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		r.logger.Warnf("Failed to get driving mode: %v", err)
		return
	}
	mode, ok := types.ParseDrivingMode(value)
	if !ok {
		r.logger.Warnf("Ignoring unknown driving mode: %q", value)
		return
	}

	if err := r.callbacks.DrivingModeCallback(mode); err != nil {
		r.logger.Warnf("Failed to handle driving mode %s: %v", mode, err)
	}
}

// ParseActionCommand splits an action list entry of the form "action" or
// "action:value". Only the first colon separates, so values may contain colons.
func ParseActionCommand(raw string) (string, string, error) {
	action, value, _ := strings.Cut(strings.TrimSpace(raw), ":")
	if action == "" {
		return "", "", fmt.Errorf("invalid action command: %q", raw)
	}
	return action, value, nil
}

// ParseHealthReport decodes a monitor hash. The timestamp may be unix seconds
// (fractional allowed) or RFC 3339; a missing timestamp is left zero.
func ParseHealthReport(fields map[string]string) (types.HealthReport, error) {
	status, ok := fields["status"]
	if !ok || status == "" {
		return types.HealthReport{}, fmt.Errorf("missing status field")
	}

	report := types.HealthReport{
		Status:  status,
		Summary: fields["summary"],
	}

	if raw := fields["timestamp"]; raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return types.HealthReport{}, err
		}
		report.Timestamp = ts
	}
	return report, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		whole := int64(secs)
		nanos := int64((secs - float64(whole)) * float64(time.Second))
		return time.Unix(whole, nanos), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return ts, nil
}

// PublishDriveEvent appends a drive event to the event stream and notifies
// HMI subscribers
func (r *RedisClient) PublishDriveEvent(ctx context.Context, event types.DriveEvent) error {
	r.logger.Infof("Publishing drive event %s: %s", event.ID, event.Message)

	pipe := r.client.Pipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamDriveEvents,
		MaxLen: driveEventMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":      event.ID,
			"ts":      event.Timestamp.UnixMilli(),
			"message": event.Message,
			"types":   strings.Join(event.Types, ","),
		},
	})
	pipe.Publish(ctx, ChannelHMI, "drive-event")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish drive event: %w", err)
	}
	return nil
}

// PublishAudioCapture stores one captured audio frame for the recorder service
func (r *RedisClient) PublishAudioCapture(ctx context.Context, data []byte) error {
	r.logger.Debugf("Publishing %d bytes of captured audio", len(data))

	pipe := r.client.Pipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamAudioCapture,
		MaxLen: audioCaptureMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"ts":   time.Now().UnixMilli(),
			"data": data,
		},
	})
	pipe.Publish(ctx, ChannelHMI, "audio-capture")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish audio capture: %w", err)
	}
	return nil
}

// SendPadCommand queues a control-pad action for the vehicle interface
func (r *RedisClient) SendPadCommand(ctx context.Context, action types.PadAction) error {
	r.logger.Infof("Sending pad command: %s", action)
	if err := r.client.LPush(ctx, KeyPadCommands, string(action)).Err(); err != nil {
		return fmt.Errorf("failed to send pad command %s: %w", action, err)
	}
	return nil
}

// PublishHMIStatus mirrors the selection fields of status into the hmi hash
func (r *RedisClient) PublishHMIStatus(ctx context.Context, status types.Status) error {
	r.logger.Debugf("Publishing HMI status revision %d", status.Revision)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, KeyHMI, map[string]interface{}{
		"mode":         status.CurrentMode,
		"launch":       status.CurrentLaunch,
		"map":          status.CurrentMap,
		"vehicle":      status.CurrentVehicle,
		"driving-mode": string(status.DrivingMode),
	})
	pipe.Publish(ctx, ChannelHMI, "status")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish HMI status: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
