// Package hid sends reports to a keyboard's raw HID interface.
package hid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	gohid "github.com/sstallion/go-hid"
)

const (
	// DefaultUsage is the usage of the QMK raw HID interface.
	DefaultUsage uint16 = 0x61
	// DefaultUsagePage is the usage page of the QMK raw HID interface.
	DefaultUsagePage uint16 = 0xFF60
)

// ErrDeviceNotFound is returned when no interface matches the selector.
var ErrDeviceNotFound = errors.New("hid device not found")

// Selector identifies the raw HID interface of a keyboard.
type Selector struct {
	VendorID  uint16
	ProductID uint16
	Usage     uint16
	UsagePage uint16
}

func (s Selector) String() string {
	return fmt.Sprintf("vid=0x%04X pid=0x%04X usage=0x%X usage_page=0x%X", s.VendorID, s.ProductID, s.Usage, s.UsagePage)
}

func (s Selector) matches(info *gohid.DeviceInfo) bool {
	return info.VendorID == s.VendorID &&
		info.ProductID == s.ProductID &&
		info.Usage == s.Usage &&
		info.UsagePage == s.UsagePage
}

// DeviceInfo is one entry of List.
type DeviceInfo struct {
	Product   string
	VendorID  uint16
	ProductID uint16
	Usage     uint16
	UsagePage uint16
	Path      string
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s: vendor_id: %d | product_id: %d | usage: %d | usage_page: %d",
		d.Product, d.VendorID, d.ProductID, d.Usage, d.UsagePage)
}

var (
	enumerate = gohid.Enumerate
	openPath  = func(path string) (io.WriteCloser, error) {
		return gohid.OpenPath(path)
	}
	initOnce sync.Once
	initErr  error
)

var initLibrary = func() error {
	initOnce.Do(func() {
		initErr = gohid.Init()
	})
	return initErr
}

// List returns every HID interface visible to the process.
func List() ([]DeviceInfo, error) {
	if err := initLibrary(); err != nil {
		return nil, fmt.Errorf("init hidapi: %w", err)
	}

	var devices []DeviceInfo
	err := enumerate(gohid.VendorIDAny, gohid.ProductIDAny, func(info *gohid.DeviceInfo) error {
		devices = append(devices, DeviceInfo{
			Product:   info.ProductStr,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Usage:     info.Usage,
			UsagePage: info.UsagePage,
			Path:      info.Path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate hid devices: %w", err)
	}
	return devices, nil
}

// Device is a Sink writing reports to an opened raw HID interface.
type Device struct {
	selector Selector

	mu  sync.Mutex
	dev io.WriteCloser
}

// Open finds the interface matching sel and opens it.
func Open(ctx context.Context, sel Selector) (*Device, error) {
	if err := initLibrary(); err != nil {
		return nil, fmt.Errorf("init hidapi: %w", err)
	}

	var path string
	err := enumerate(sel.VendorID, sel.ProductID, func(info *gohid.DeviceInfo) error {
		if path == "" && sel.matches(info) {
			path = info.Path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate hid devices: %w", err)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, sel)
	}

	dev, err := openPath(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ctxlog.Info(ctx, "opened hid device", "device", sel.String(), "path", path)
	return &Device{selector: sel, dev: dev}, nil
}

// Send writes the report to the device.
func (d *Device) Send(ctx context.Context, report qmkontext.Report) error {
	ctxlog.Debug(ctx, "sending", "command_id", report.Command, "data", report.Data)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return fmt.Errorf("%s: device closed", d.selector)
	}
	if _, err := d.dev.Write(report.Bytes()); err != nil {
		return fmt.Errorf("hid write %s: %w", d.selector, err)
	}
	return nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	return err
}
