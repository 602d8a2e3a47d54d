// Package cmds provides the catalog of NXT direct and system commands.
//
// Commands are plain values encoded with Command(). Replies are typed
// views over packet.Response registered in the packet decode table, so
// a reply decoded by the scheduler comes back as the matching type.
package cmds
