package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logFlushInterval = 2 * time.Second
	logBatchSize     = 200
	logRetentionDays = 30
)

// LogEventsAPI is the slice of the CloudWatch Logs API the shipper needs.
type LogEventsAPI interface {
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient buffers log lines and ships them to a CloudWatch Logs
// stream in batches. It implements io.Writer so it can be tee'd into zap.
type CloudWatchLogsClient struct {
	api     LogEventsAPI
	group   string
	stream  string
	enabled bool

	mu      sync.Mutex
	pending []types.InputLogEvent

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewCloudWatchLogsClient prepares the log group and a per-process stream,
// then starts the background shipper. With CLOUDWATCH_ENABLED unset the
// client swallows writes.
func NewCloudWatchLogsClient(ctx context.Context, cfg aws.Config, serviceName string) (*CloudWatchLogsClient, error) {
	if os.Getenv("CLOUDWATCH_ENABLED") != "true" {
		return &CloudWatchLogsClient{}, nil
	}

	group := os.Getenv("CLOUDWATCH_LOG_GROUP")
	if group == "" {
		group = "/tcmudah/storefront"
	}
	host, _ := os.Hostname()
	stream := fmt.Sprintf("%s/%s/%d", serviceName, host, time.Now().Unix())

	client := cloudwatchlogs.NewFromConfig(cfg)
	if err := ensureLogStream(ctx, client, group, stream); err != nil {
		return nil, err
	}
	return newLogShipper(client, group, stream), nil
}

func newLogShipper(api LogEventsAPI, group, stream string) *CloudWatchLogsClient {
	c := &CloudWatchLogsClient{
		api:     api,
		group:   group,
		stream:  stream,
		enabled: true,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

func ensureLogStream(ctx context.Context, client *cloudwatchlogs.Client, group, stream string) error {
	var exists *types.ResourceAlreadyExistsException

	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(group)})
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("create log group %s: %w", group, err)
	}
	_, err = client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(group),
		RetentionInDays: aws.Int32(logRetentionDays),
	})
	if err != nil {
		return fmt.Errorf("set retention on %s: %w", group, err)
	}
	_, err = client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	})
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("create log stream %s: %w", stream, err)
	}
	return nil
}

// Write queues one log line. It never blocks on the network.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	if !c.IsEnabled() {
		return len(p), nil
	}

	c.mu.Lock()
	c.pending = append(c.pending, types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	})
	full := len(c.pending) >= logBatchSize
	c.mu.Unlock()

	if full {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

func (c *CloudWatchLogsClient) run() {
	defer close(c.done)
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.kick:
			c.flush()
		case <-c.stop:
			c.flush()
			return
		}
	}
}

func (c *CloudWatchLogsClient) flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for len(batch) > 0 {
		n := min(len(batch), logBatchSize)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(c.group),
			LogStreamName: aws.String(c.stream),
			LogEvents:     batch[:n],
		})
		cancel()
		if err != nil {
			// zap writes here, so report on stderr instead.
			fmt.Fprintf(os.Stderr, "cloudwatch logs: dropped %d events: %v\n", n, err)
		}
		batch = batch[n:]
	}
}

// Close ships whatever is buffered and stops the shipper.
func (c *CloudWatchLogsClient) Close() {
	if !c.IsEnabled() {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

func (c *CloudWatchLogsClient) IsEnabled() bool {
	return c != nil && c.enabled
}
