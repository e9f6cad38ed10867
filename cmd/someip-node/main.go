/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command someip-node wires the config, transport, SD, TP and stats
// packages together into one running service-offering node. It is
// example wiring, not a library. Besides this command, only the stats
// HTTP servers (JSONServer.Start, PrometheusExporter.Start) call
// log.Fatalf.
package main

import (
	"context"
	"flag"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/someip-go/someip/config"
	"github.com/someip-go/someip/sd"
	"github.com/someip-go/someip/stats"
	"github.com/someip-go/someip/tp"
	"github.com/someip-go/someip/transport"
	"github.com/someip-go/someip/wire"
)

// loggingListener adapts tp.Reassembler completion/error callbacks to
// structured log lines; a real service would dispatch msg to its RPC
// layer instead.
type loggingListener struct{}

func (loggingListener) OnComplete(key tp.Key, msg *wire.Message) {
	log.Debugf("reassembled message from client 0x%04x, %d bytes", key.ClientID, msg.PayloadLength())
}

func (loggingListener) OnError(key tp.Key, err error) {
	log.Warningf("reassembly error for client 0x%04x: %v", key.ClientID, err)
}

func main() {
	configPath := flag.String("config", "", "path to a someip.yaml config file; defaults are used if empty")
	serviceID := flag.Uint("service-id", 0x1234, "SOME/IP service ID to offer")
	instanceID := flag.Uint("instance-id", 0x0001, "SOME/IP instance ID to offer")
	jsonPort := flag.Int("json-port", 8080, "port for the JSON counters endpoint")
	promPort := flag.Int("prom-port", 9090, "port for the Prometheus /metrics endpoint")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Read(*configPath)
		if err != nil {
			log.Fatalf("reading config: %v", err)
		}
		cfg = *loaded
	}

	counters := stats.NewCounters()
	go stats.NewJSONServer(counters).Start(*jsonPort)
	go stats.NewPrometheusExporter(counters, 10*time.Second).Start(*promPort)

	mcast, err := transport.NewMulticast(net.ParseIP(sd.MulticastGroup), sd.Port, "", 1)
	if err != nil {
		log.Fatalf("joining SD multicast group: %v", err)
	}
	defer mcast.Close()

	groupAddr := &net.UDPAddr{IP: net.ParseIP(sd.MulticastGroup), Port: sd.Port}
	sendOffer := func(msg *sd.SDMessage) error {
		wireMsg, err := msg.Encode()
		if err != nil {
			return err
		}
		buf, err := wireMsg.MarshalBinary()
		if err != nil {
			return err
		}
		counters.RecordSDOfferSent()
		_, err = mcast.WriteTo(buf, groupAddr)
		return err
	}

	server := sd.NewServerInstance(uint16(*serviceID), uint16(*instanceID), 1, sd.DefaultServerConfig(), sd.NewScheduler(), sendOffer)
	if err := server.Offer(); err != nil {
		log.Fatalf("starting offer lifecycle: %v", err)
	}

	reassembler := tp.NewReassembler(cfg.TP.ReassemblyTimeout, cfg.TP.MaxBufferPerContext, loggingListener{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := reassembler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("reassembler stopped: %v", err)
		}
	}()

	log.Infof("someip-node offering service 0x%04x instance 0x%04x", *serviceID, *instanceID)
	select {}
}
