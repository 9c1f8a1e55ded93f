package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"
)

// DefaultLocalName is what the phone app scans for.
const DefaultLocalName = "Moonboard A"

// advertiser is the part of bluetooth.Advertisement the peripheral drives.
type advertiser interface {
	Start() error
	Stop() error
}

// BLE is a peripheral exposing the Nordic UART service. Every write to the
// RX characteristic becomes one chunk.
type BLE struct {
	adapter   *bluetooth.Adapter
	localName string
	log       zerolog.Logger

	mu  sync.Mutex
	adv advertiser
	ctx context.Context
	out chan<- []byte
	rx  bluetooth.Characteristic
}

func NewBLE(localName string, log zerolog.Logger) *BLE {
	if localName == "" {
		localName = DefaultLocalName
	}
	return &BLE{adapter: bluetooth.DefaultAdapter, localName: localName, log: log}
}

func (b *BLE) Start(ctx context.Context, out chan<- []byte) error {
	b.mu.Lock()
	b.ctx, b.out = ctx, out
	b.mu.Unlock()

	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth: %w", err)
	}
	adv := b.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    b.localName,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	}); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}

	var tx bluetooth.Characteristic
	err := b.adapter.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &b.rx,
				UUID:   bluetooth.CharacteristicUUIDUARTRX,
				Flags:  bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					b.onWrite(value)
				},
			},
			{
				Handle: &tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("add uart service: %w", err)
	}

	b.mu.Lock()
	b.adv = adv
	b.mu.Unlock()
	if err := adv.Start(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	b.log.Info().Str("name", b.localName).Msg("advertising uart service")
	return nil
}

// onWrite runs on the bluetooth stack's callback; it blocks until the
// dispatch loop takes the chunk or the context ends.
func (b *BLE) onWrite(value []byte) {
	b.mu.Lock()
	ctx, out := b.ctx, b.out
	b.mu.Unlock()
	if out == nil || len(value) == 0 {
		return
	}
	b.log.Debug().Int("len", len(value)).Msg("rx write")
	deliver(ctx, out, value)
}

// Resume restarts advertising. Some centrals stop scanning results from a
// peripheral once it has been written to, so this runs after every problem.
func (b *BLE) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adv == nil {
		return nil
	}
	_ = b.adv.Stop()
	if err := b.adv.Start(); err != nil {
		return fmt.Errorf("restart advertising: %w", err)
	}
	b.log.Debug().Str("name", b.localName).Msg("advertising restarted")
	return nil
}

func (b *BLE) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adv == nil {
		return nil
	}
	err := b.adv.Stop()
	b.adv = nil
	b.out = nil
	return err
}
