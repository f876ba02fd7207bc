package link

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

type ifaceLookup func(name string) (net.Flags, []net.Addr, error)

// NMRadio joins a network through NetworkManager and reads the link state from
// the kernel interface.
type NMRadio struct {
	run      runner
	lookup   ifaceLookup
	ssid     string
	password string
	iface    string
}

func NewNMRadio(w Wifi) *NMRadio {
	return &NMRadio{
		run:      execRunner,
		lookup:   systemLookup,
		ssid:     w.SSID,
		password: w.Password,
		iface:    w.Interface,
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func systemLookup(name string) (net.Flags, []net.Addr, error) {
	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return 0, nil, err
	}
	addrs, err := ifc.Addrs()
	return ifc.Flags, addrs, err
}

func (r *NMRadio) args() []string {
	args := []string{"device", "wifi", "connect", r.ssid}
	if r.password != "" {
		args = append(args, "password", r.password)
	}
	return append(args, "ifname", r.iface)
}

// Begin launches nmcli in the background and returns immediately.
func (r *NMRadio) Begin(ctx context.Context) error {
	if r.ssid == "" {
		return fmt.Errorf("no ssid configured")
	}
	go func() {
		out, err := r.run(ctx, "nmcli", r.args()...)
		if err != nil {
			Logger.Warn().Err(err).Str("output", strings.TrimSpace(string(out))).Msg("nmcli connect failed")
			return
		}
		Logger.Debug().Str("output", strings.TrimSpace(string(out))).Msg("nmcli connect")
	}()
	return nil
}

func (r *NMRadio) Status() state.ConnectionState {
	if r.Address() == "" {
		return state.Disconnected
	}
	return state.Connected
}

// Address is the first global IPv4 address of an up interface, or "".
func (r *NMRadio) Address() string {
	flags, addrs, err := r.lookup(r.iface)
	if err != nil {
		Logger.Trace().Err(err).Str("iface", r.iface).Msg("interface lookup")
		return ""
	}
	if flags&net.FlagUp == 0 {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.IsLinkLocalUnicast() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
