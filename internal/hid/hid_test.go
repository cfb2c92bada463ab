package hid

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/TheAlpha16/qmkontext"
	"github.com/prashantv/gostub"
	gohid "github.com/sstallion/go-hid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	writes   [][]byte
	closed   bool
	writeErr error
}

func (f *fakeDevice) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

var keyboard = Selector{VendorID: 0xFEED, ProductID: 0x6060, Usage: DefaultUsage, UsagePage: DefaultUsagePage}

func stubDevices(t *testing.T, infos []gohid.DeviceInfo, dev io.WriteCloser) *[]string {
	var opened []string
	stubs := gostub.Stub(&initLibrary, func() error { return nil })
	stubs.Stub(&enumerate, func(vid, pid uint16, fn gohid.EnumFunc) error {
		for i := range infos {
			info := infos[i]
			if vid != gohid.VendorIDAny && info.VendorID != vid {
				continue
			}
			if pid != gohid.ProductIDAny && info.ProductID != pid {
				continue
			}
			if err := fn(&info); err != nil {
				return err
			}
		}
		return nil
	})
	stubs.Stub(&openPath, func(path string) (io.WriteCloser, error) {
		opened = append(opened, path)
		return dev, nil
	})
	t.Cleanup(stubs.Reset)
	return &opened
}

func TestOpenSelectsRawHIDInterface(t *testing.T) {
	dev := &fakeDevice{}
	opened := stubDevices(t, []gohid.DeviceInfo{
		{Path: "/dev/hidraw0", VendorID: 0xFEED, ProductID: 0x6060, Usage: 0x06, UsagePage: 0x01},
		{Path: "/dev/hidraw1", VendorID: 0xFEED, ProductID: 0x6060, Usage: DefaultUsage, UsagePage: DefaultUsagePage},
		{Path: "/dev/hidraw2", VendorID: 0x046D, ProductID: 0xC52B, Usage: DefaultUsage, UsagePage: DefaultUsagePage},
	}, dev)

	d, err := Open(context.Background(), keyboard)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/hidraw1"}, *opened)

	require.NoError(t, d.Send(context.Background(), qmkontext.Report{Command: 0x10, Data: 0x2A}))
	require.Len(t, dev.writes, 1)
	want := make([]byte, qmkontext.ReportSize+1)
	want[1], want[2] = 0x10, 0x2A
	assert.Equal(t, want, dev.writes[0])

	require.NoError(t, d.Close())
	assert.True(t, dev.closed)
	assert.Error(t, d.Send(context.Background(), qmkontext.Report{}))
	assert.NoError(t, d.Close())
}

func TestOpenDeviceNotFound(t *testing.T) {
	stubDevices(t, []gohid.DeviceInfo{
		{Path: "/dev/hidraw0", VendorID: 0xFEED, ProductID: 0x6060, Usage: 0x06, UsagePage: 0x01},
	}, &fakeDevice{})

	_, err := Open(context.Background(), keyboard)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestSendWriteError(t *testing.T) {
	dev := &fakeDevice{writeErr: errors.New("broken pipe")}
	stubDevices(t, []gohid.DeviceInfo{
		{Path: "/dev/hidraw1", VendorID: 0xFEED, ProductID: 0x6060, Usage: DefaultUsage, UsagePage: DefaultUsagePage},
	}, dev)

	d, err := Open(context.Background(), keyboard)
	require.NoError(t, err)
	err = d.Send(context.Background(), qmkontext.Report{Command: 1, Data: 1})
	assert.ErrorContains(t, err, "broken pipe")
}

func TestList(t *testing.T) {
	stubDevices(t, []gohid.DeviceInfo{
		{Path: "/dev/hidraw0", ProductStr: "Planck", VendorID: 0xFEED, ProductID: 0x6060, Usage: DefaultUsage, UsagePage: DefaultUsagePage},
		{Path: "/dev/hidraw3", ProductStr: "USB Receiver", VendorID: 0x046D, ProductID: 0xC52B, Usage: 1, UsagePage: 0xFF00},
	}, nil)

	devices, err := List()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Planck: vendor_id: 65261 | product_id: 24672 | usage: 97 | usage_page: 65376", devices[0].String())
	assert.Equal(t, "/dev/hidraw3", devices[1].Path)
}
