//go:build tinygo

// Package cyw43439 brings up the Pico W radio for the optional MQTT mirror:
// it joins the configured network, runs DHCP and pumps packets between the
// CYW43439 and the lneto stack.
//
// Based on the examples in the soypat/cyw43439 repository:
// https://github.com/soypat/cyw43439/tree/main/examples/common
package cyw43439

import (
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/config"
	"github.com/harveysanders/gairidisplay/facepanel/lcd"
	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// Stack wraps the lneto StackAsync and CYW43439 device for network operations.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	status  chan<- lcd.Message
	sendbuf []byte
}

// Join initialises the radio and joins cfg's network, retrying the join
// until it succeeds. Progress is reported on status.
func Join(cfg config.WiFi, logger *slog.Logger, status chan<- lcd.Message) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)

	lcd.Send(status, "WiFi", "radio init")
	err := dev.Init(cyw43439.DefaultWifiConfig())
	if err != nil {
		return nil, errors.New("wifi init failed:" + err.Error())
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(start)))

	lcd.Send(status, "WiFi joining", cfg.SSID)
	for {
		err = dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("wifi:join-failed", slog.String("ssid", cfg.SSID), slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi:joined", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		status:  status,
		sendbuf: make([]byte, mtu),
	}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     1,
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})
	return stack, nil
}

// DHCP requests an address and configures the gateway. Run must already be
// pumping packets.
func (s *Stack) DHCP() (*xnet.DHCPResults, error) {
	const pollTime = 50 * time.Millisecond
	rstack := s.s.StackRetrying(pollTime)

	s.log.Info("dhcp:starting")
	lcd.Send(s.status, "WiFi", "DHCP...")
	results, err := rstack.DoDHCPv4([4]byte{}, 3*time.Second, 3)
	if err != nil {
		return nil, errors.New("dhcp failed:" + err.Error())
	}
	err = s.s.AssimilateDHCPResults(results)
	if err != nil {
		return nil, errors.New("assimilate dhcp:" + err.Error())
	}
	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return nil, errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("dhcp:complete",
		slog.String("ourIP", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("lease_sec", uint64(results.TLease)),
	)
	lcd.Send(s.status, "WiFi up", results.AssignedAddr.String())
	return results, nil
}

// Run pumps packets forever. Call it in its own goroutine.
func (s *Stack) Run() {
	for {
		send, recv, _ := s.recvAndSend()
		if send == 0 && recv == 0 {
			// Nothing moved; let the dispatch loop run.
			runtime.Gosched()
		}
	}
}

func (s *Stack) recvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("net:poll", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("net:encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}
	if send == 0 {
		return send, recv, err
	}

	err = s.dev.SendEth(s.sendbuf[:send])
	if err != nil {
		s.log.Error("net:send", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// LnetoStack returns the underlying lneto StackAsync for TCP and DNS.
func (s *Stack) LnetoStack() *xnet.StackAsync { return &s.s }

// Addr returns the current IP address of the stack.
func (s *Stack) Addr() netip.Addr { return s.s.Addr() }
