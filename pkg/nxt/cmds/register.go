package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

func init() {
	for _, code := range []byte{
		CodeStartProgram,
		CodeStopProgram,
		CodePlaySoundFile,
		CodePlayTone,
		CodeSetOutputState,
		CodeSetInputMode,
		CodeResetInputScaledValue,
		CodeMessageWrite,
		CodeResetMotorPosition,
		CodeStopSoundPlayback,
		CodeLSWrite,
		CodeSetBrickName,
		CodeDeleteUserFlash,
	} {
		packet.Register(code, ReplyHeaderSize, nil)
	}

	packet.Register(CodeGetBatteryLevel, 5, func(r *packet.Response) packet.Reply { return &BatteryLevel{Response: *r} })
	packet.Register(CodeKeepAlive, 7, func(r *packet.Response) packet.Reply { return &KeepAliveReply{Response: *r} })
	packet.Register(CodeGetCurrentProgramName, 3+FilenameSize, func(r *packet.Response) packet.Reply { return &CurrentProgramName{Response: *r} })
	packet.Register(CodeGetOutputState, 25, func(r *packet.Response) packet.Reply { return &OutputState{Response: *r} })
	packet.Register(CodeGetInputValues, 16, func(r *packet.Response) packet.Reply { return &InputValues{Response: *r} })
	packet.Register(CodeMessageRead, 5+MessageSize, func(r *packet.Response) packet.Reply { return &Message{Response: *r} })
	packet.Register(CodeLSGetStatus, 4, func(r *packet.Response) packet.Reply { return &LSStatus{Response: *r} })
	packet.Register(CodeLSRead, 4+LSDataSize, func(r *packet.Response) packet.Reply { return &LSReadReply{Response: *r} })

	packet.Register(CodeOpenRead, 8, func(r *packet.Response) packet.Reply { return &OpenReadReply{Response: *r} })
	handle := func(r *packet.Response) packet.Reply { return &HandleReply{Response: *r} }
	packet.Register(CodeOpenWrite, 4, handle)
	packet.Register(CodeOpenWriteLinear, 4, handle)
	packet.Register(CodeClose, 4, handle)
	packet.Register(CodeOpenAppendData, 8, func(r *packet.Response) packet.Reply { return &OpenAppendDataReply{Response: *r} })
	packet.RegisterSizeFunc(CodeRead, readReplySize, func(r *packet.Response) packet.Reply { return &ReadReply{Response: *r} })
	packet.Register(CodeWrite, 6, func(r *packet.Response) packet.Reply { return &WriteReply{Response: *r} })
	packet.Register(CodeDelete, 3+FilenameSize, func(r *packet.Response) packet.Reply { return &DeleteReply{Response: *r} })
	find := func(r *packet.Response) packet.Reply { return &FindReply{Response: *r} }
	packet.Register(CodeFindFirst, 28, find)
	packet.Register(CodeFindNext, 28, find)
	packet.Register(CodeGetFirmwareVersion, 7, func(r *packet.Response) packet.Reply { return &FirmwareVersion{Response: *r} })
	packet.Register(CodeGetDeviceInfo, 33, func(r *packet.Response) packet.Reply { return &DeviceInfo{Response: *r} })
}

// readReplySize carries the requested count after the 6 header bytes.
func readReplySize(req packet.Packet) int {
	return 6 + int(req.Uint16(3))
}
