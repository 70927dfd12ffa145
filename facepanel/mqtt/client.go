package mqtt

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/dispatch"
	"github.com/harveysanders/gairidisplay/facepanel/lcd"
	"github.com/soypat/lneto/tcp"
	"github.com/soypat/lneto/x/xnet"
	mqtt "github.com/soypat/natiu-mqtt"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// publisher is the part of *mqtt.Client used to send frames.
type publisher interface {
	PublishPayload(flags mqtt.PacketFlags, vars mqtt.VariablesPublish, payload []byte) error
}

type Client struct {
	ID                string
	Timeout           time.Duration
	TCPBufSize        int
	Logger            *slog.Logger
	HeartbeatInterval time.Duration
	Username          string // MQTT broker username (optional)
	Password          string // MQTT broker password (optional, requires Username)
	RxTopic           string // frames from the host
	TxTopic           string // frames sent by the panel
}

// Topic returns the topic frames travelling in dir are published to.
func (c *Client) Topic(dir dispatch.Direction) string {
	if dir == dispatch.Outbound {
		return c.TxTopic
	}
	return c.RxTopic
}

// publish sends one mirrored frame as a QoS0 message.
func (c *Client) publish(p publisher, f Frame, packetID uint16) error {
	vars := mqtt.VariablesPublish{
		TopicName:        []byte(c.Topic(f.Dir)),
		PacketIdentifier: packetID,
	}
	return p.PublishPayload(pubFlags, vars, f.Data)
}

// ConnectAndMirror connects to the broker at addr and publishes every frame
// received on frames, reconnecting as needed. It only returns on a
// configuration error. Progress is reported on status for the link monitor.
// The stack is provided from main.go where WiFi/DHCP are set up.
func (c *Client) ConnectAndMirror(
	stack *xnet.StackAsync,
	addr string,
	frames <-chan Frame,
	status chan<- lcd.Message,
) error {
	const pollTime = 5 * time.Millisecond

	c.Logger.Info("MQTT address: " + addr)

	// Parse hostname and port from addr (e.g., "hostname:1883")
	mqttHost, portStr, err := splitHostPort(addr)
	if err != nil {
		return errors.New("parsing host:port from " + addr + ": " + err.Error())
	}
	port := parsePort(portStr)
	if port == 0 {
		return errors.New("invalid port in " + addr)
	}

	rstack := stack.StackRetrying(pollTime)

	// Try to parse as IP first, otherwise DNS lookup
	var mqttAddr netip.Addr
	if parsedAddr, err := netip.ParseAddr(mqttHost); err == nil {
		mqttAddr = parsedAddr
	} else {
		c.Logger.Info("dns:resolving " + mqttHost)
		addrs, err := rstack.DoLookupIP(mqttHost, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup for " + mqttHost + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup for " + mqttHost + ": no addresses returned")
		}
		mqttAddr = addrs[0]
	}
	c.Logger.Info("resolved IP: " + mqttAddr.String())

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			c.Logger.Info("received message", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.ID))
	if c.Username != "" {
		varconn.Username = []byte(c.Username)
		if c.Password != "" {
			varconn.Password = []byte(c.Password)
		}
	}

	mqttClient := mqtt.NewClient(cfg)

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, c.TCPBufSize),
		TxBuf:             make([]byte, c.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}

	closeConn := func(reason string) {
		c.Logger.Error("tcpconn:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	serverAddr := netip.AddrPortFrom(mqttAddr, port)
	heartbeat := time.NewTicker(c.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		localPort := uint16(stack.Prand32()>>17) + 1024
		c.Logger.Info("socket:dialing", slog.Uint64("localPort", uint64(localPort)))
		lcd.Send(status, "MQTT dialing", addr)

		err = rstack.DoDialTCP(&conn, localPort, serverAddr, 10*time.Second, 3)
		if err != nil {
			c.Logger.Error("socket:dial-failed", slog.String("err", err.Error()))
			closeConn("dial failed: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}
		c.Logger.Info("tcp:connected", slog.String("state", conn.State().String()))

		c.Logger.Info("mqtt:start-connecting")
		conn.SetDeadline(time.Now().Add(c.Timeout))
		err = mqttClient.StartConnect(&conn, &varconn)
		if err != nil {
			c.Logger.Error("mqtt:start-connect-failed", slog.String("reason", err.Error()))
			lcd.Send(status, "MQTT failed", err.Error())
			closeConn("connect failed")
			continue
		}
		retries := 50
		for retries > 0 && !mqttClient.IsConnected() {
			time.Sleep(100 * time.Millisecond)
			err = mqttClient.HandleNext()
			if err != nil {
				c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
			retries--
		}
		if !mqttClient.IsConnected() {
			c.Logger.Error("mqtt:connect-failed", slog.Any("reason", mqttClient.Err()))
			lcd.Send(status, "MQTT failed", "timed out")
			closeConn("connect timed out")
			continue
		}

		lcd.Send(status, "MQTT connected", c.RxTopic)

		for mqttClient.IsConnected() {
			select {
			case f := <-frames:
				conn.SetDeadline(time.Now().Add(c.Timeout))
				packetID := uint16(stack.Prand32())
				err = c.publish(mqttClient, f, packetID)
				if err != nil {
					c.Logger.Error("mqtt:publish-failed", slog.Any("reason", err))
					continue
				}
				c.Logger.Debug("mqtt:published",
					slog.String("topic", c.Topic(f.Dir)),
					slog.Uint64("packetID", uint64(packetID)),
				)
				err = mqttClient.HandleNext()
				if err != nil {
					c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
				}
			case <-heartbeat.C:
				// Nothing mirrored for a while; let the client ping the broker.
				err = mqttClient.HandleNext()
				if err != nil {
					c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
				}
			default:
				// TinyGo runs goroutines on a single core; give the
				// dispatch loop its turn.
				runtime.Gosched()
			}
		}

		c.Logger.Error("mqtt:disconnected", slog.Any("reason", mqttClient.Err()))
		lcd.Send(status, "MQTT lost", "reconnecting...")
		closeConn("disconnected")
		runtime.Gosched()
	}
}

// splitHostPort splits a host:port string into separate host and port components.
// Returns an error if the format is invalid.
func splitHostPort(addr string) (host, port string, err error) {
	// Find the last colon to support IPv6 addresses
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	port = addr[colonIdx+1:]
	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}
	return host, port, nil
}

// parsePort converts a port string to uint16.
// Returns 0 if parsing fails (caller should validate).
func parsePort(portStr string) uint16 {
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 0xffff {
			return 0
		}
	}
	return uint16(port)
}
