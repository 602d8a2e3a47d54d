package cmds

import (
	"fmt"

	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// GetFirmwareVersion queries protocol and firmware versions.
type GetFirmwareVersion struct{}

// Command implements Builder.
func (c GetFirmwareVersion) Command() *packet.Command {
	return system(CodeGetFirmwareVersion, 2, 7)
}

// FirmwareVersion is the reply of GetFirmwareVersion.
type FirmwareVersion struct {
	packet.Response
}

// Protocol gets the protocol version as major.minor.
func (r *FirmwareVersion) Protocol() string {
	return fmt.Sprintf("%d.%d", r.Packet.Uint8(4), r.Packet.Uint8(3))
}

// Firmware gets the firmware version as major.minor.
func (r *FirmwareVersion) Firmware() string {
	return fmt.Sprintf("%d.%02d", r.Packet.Uint8(6), r.Packet.Uint8(5))
}

// SetBrickName renames the brick, Name is limited to 15 characters.
type SetBrickName struct {
	Name string
}

// Command implements Builder.
func (c SetBrickName) Command() *packet.Command {
	cmd := system(CodeSetBrickName, 2+BrickNameSize, ReplyHeaderSize)
	cmd.Packet.PutString(2, BrickNameSize, c.Name)
	return cmd
}

// GetDeviceInfo queries brick name, address and memory.
type GetDeviceInfo struct{}

// Command implements Builder.
func (c GetDeviceInfo) Command() *packet.Command {
	return system(CodeGetDeviceInfo, 2, 33)
}

// DeviceInfo is the reply of GetDeviceInfo.
type DeviceInfo struct {
	packet.Response
}

// Name gets the brick name.
func (r *DeviceInfo) Name() string { return r.Packet.String(3, DeviceNameSize) }

// BTAddress gets the Bluetooth address formatted as xx:xx:xx:xx:xx:xx.
func (r *DeviceInfo) BTAddress() string {
	b := r.Packet.Bytes(18, BTAddressSize)
	if len(b) < BTAddressSize {
		return ""
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5])
}

// SignalStrength gets the Bluetooth signal strength.
func (r *DeviceInfo) SignalStrength() uint32 { return r.Packet.Uint32(25) }

// FreeFlash gets the available user flash in bytes.
func (r *DeviceInfo) FreeFlash() uint32 { return r.Packet.Uint32(29) }

// DeleteUserFlash erases all user files.
type DeleteUserFlash struct{}

// Command implements Builder.
func (c DeleteUserFlash) Command() *packet.Command {
	return system(CodeDeleteUserFlash, 2, ReplyHeaderSize)
}
