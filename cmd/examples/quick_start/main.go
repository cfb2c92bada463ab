package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TheAlpha16/qmkontext"
)

const (
	cmdLayer  qmkontext.CommandID = 0x01
	cmdVolume qmkontext.CommandID = 0x02
)

func main() {
	// Keyboard side: the command table the firmware dispatches raw HID reports through
	registry := qmkontext.NewRegistry()
	registry.Register(cmdLayer, func(layer byte) bool {
		fmt.Printf("switching to layer %d\n", layer)
		return layer < 4
	})

	// Receiving end of the relay
	receiver, err := qmkontext.NewValkeyTransportWithAddress("localhost:6379", "qmkontext")
	if err != nil {
		log.Fatalf("Failed to connect to valkey: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	engine := qmkontext.NewEngine(qmkontext.NewTransportSource(receiver), qmkontext.RegistrySink{Registry: registry})
	if err := engine.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer engine.Shutdown()

	// Host side: publish a few reports
	publisher, err := qmkontext.NewValkeyTransportWithAddress("localhost:6379", "qmkontext")
	if err != nil {
		log.Fatalf("Failed to connect to valkey: %v", err)
	}
	defer publisher.Close()

	time.Sleep(500 * time.Millisecond)
	for _, r := range []qmkontext.Report{
		{Command: cmdLayer, Data: 2},
		{Command: cmdVolume, Data: 80}, // unregistered, falls through
		{Command: cmdLayer, Data: 9},
	} {
		if err := publisher.Publish(ctx, r); err != nil {
			log.Printf("Failed to publish %v: %v", r, err)
		}
	}

	// Dispatching directly, as raw_hid_receive would
	fmt.Println("handled:", registry.Dispatch([]byte{byte(cmdLayer), 1}, qmkontext.ReportSize))
	fmt.Println("handled:", registry.Dispatch([]byte{byte(cmdVolume), 1}, qmkontext.ReportSize))

	<-ctx.Done()
	fmt.Println("Quick start example completed!")
}
