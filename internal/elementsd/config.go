// Package elementsd supervises an elementsd (Liquid) node for integration
// tests. It generates the elements.conf, launches the daemon, captures its
// stderr and tracks the chain tip from UpdateTip log lines.
package elementsd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ConfigFilename is the config file name elementsd expects in its datadir.
const ConfigFilename = "elements.conf"

// Version constants, encoded two digits per section (0.18.1.0 => 18_01_00).
const (
	// OldLiquidVersion marks the legacy liquidd line released as 2.x.x and
	// 3.x.x versions.
	OldLiquidVersion = 2_00_00_00
	// DynafedVersion is the dynamic-federations activation version; it
	// changes the pak entry format.
	DynafedVersion = 18_01_00

	DefaultVersion = 18_01_00
)

// PAKPair is one pay-to-contract authorization entry, an offline and an
// online public key, both hex-encoded.
type PAKPair struct {
	Offline string `mapstructure:"offline"`
	Online  string `mapstructure:"online"`
}

// Config describes the elements.conf to generate. Chain is required.
type Config struct {
	// Version is not itself written to the config file, but determines the
	// file format: chain section headers and the pak entry format depend on
	// the daemon version.
	Version int `mapstructure:"version"`

	Datadir        string   `mapstructure:"datadir"`
	Debug          bool     `mapstructure:"debug"`
	PrintToConsole bool     `mapstructure:"printtoconsole"`
	Daemon         bool     `mapstructure:"daemon"`
	Listen         bool     `mapstructure:"listen"`
	Port           int      `mapstructure:"port"`
	TxIndex        bool     `mapstructure:"txindex"`
	Connect        []string `mapstructure:"connect"`

	RPCCookie string `mapstructure:"rpccookie"`
	RPCPort   int    `mapstructure:"rpcport"`
	RPCUser   string `mapstructure:"rpcuser"`
	RPCPass   string `mapstructure:"rpcpass"`

	AddressType   string  `mapstructure:"addresstype"`
	BlockMinTxFee float64 `mapstructure:"blockmintxfee"`
	MinRelayTxFee float64 `mapstructure:"minrelaytxfee"`

	// Elements-specific settings.
	Chain                             string    `mapstructure:"chain"`
	ValidatePegin                     bool      `mapstructure:"validatepegin"`
	SignBlockScript                   string    `mapstructure:"signblockscript"` // hex
	ConMaxBlockSigSize                int       `mapstructure:"con_max_block_sig_size"`
	FedPegScript                      string    `mapstructure:"fedpegscript"` // hex
	PAKPubkeys                        []PAKPair `mapstructure:"pak_pubkeys"`
	ConDynaDeployStart                int       `mapstructure:"con_dyna_deploy_start"`
	ConNMinerConfirmationWindow       int       `mapstructure:"con_nminerconfirmationwindow"`
	ConNRuleChangeActivationThreshold int       `mapstructure:"con_nrulechangeactivationthreshold"`

	MainchainRPCHost string `mapstructure:"mainchain_rpchost"`
	MainchainRPCPort int    `mapstructure:"mainchain_rpcport"`
	MainchainRPCUser string `mapstructure:"mainchain_rpcuser"`
	MainchainRPCPass string `mapstructure:"mainchain_rpcpass"`
}

// WriteTo renders the elements.conf into w.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	if c.Chain == "" {
		return 0, errors.New("chain must be set")
	}
	version := c.Version
	if version == 0 {
		version = DefaultVersion
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "datadir=%s\n", c.Datadir)

	fmt.Fprintf(&buf, "chain=%s\n", c.Chain)
	if version >= 17_00_00 && version < OldLiquidVersion {
		fmt.Fprintf(&buf, "[%s]\n", c.Chain)
	}

	fmt.Fprintf(&buf, "debug=%d\n", b2i(c.Debug))
	fmt.Fprintf(&buf, "printtoconsole=%d\n", b2i(c.PrintToConsole))
	fmt.Fprintf(&buf, "daemon=%d\n", b2i(c.Daemon))
	fmt.Fprintf(&buf, "listen=%d\n", b2i(c.Listen))
	if c.Port != 0 {
		fmt.Fprintf(&buf, "port=%d\n", c.Port)
	}
	fmt.Fprintf(&buf, "txindex=%d\n", b2i(c.TxIndex))
	if c.SignBlockScript != "" {
		fmt.Fprintf(&buf, "signblockscript=%s\n", c.SignBlockScript)
	}
	if c.ConMaxBlockSigSize != 0 {
		fmt.Fprintf(&buf, "con_max_block_sig_size=%d\n", c.ConMaxBlockSigSize)
	}
	if c.FedPegScript != "" {
		fmt.Fprintf(&buf, "fedpegscript=%s\n", c.FedPegScript)
	}
	for _, pair := range c.PAKPubkeys {
		// Dynafed-era daemons take the two keys concatenated, older ones
		// colon-separated.
		if version >= DynafedVersion && version < OldLiquidVersion {
			fmt.Fprintf(&buf, "pak=%s%s\n", pair.Offline, pair.Online)
		} else {
			fmt.Fprintf(&buf, "pak=%s:%s\n", pair.Offline, pair.Online)
		}
	}
	if c.ConDynaDeployStart != 0 {
		fmt.Fprintf(&buf, "con_dyna_deploy_start=%d\n", c.ConDynaDeployStart)
	}
	if c.ConNMinerConfirmationWindow != 0 {
		fmt.Fprintf(&buf, "con_nminerconfirmationwindow=%d\n", c.ConNMinerConfirmationWindow)
	}
	if c.ConNRuleChangeActivationThreshold != 0 {
		fmt.Fprintf(&buf, "con_nrulechangeactivationthreshold=%d\n", c.ConNRuleChangeActivationThreshold)
	}

	for _, connect := range c.Connect {
		fmt.Fprintf(&buf, "connect=%s\n", connect)
	}

	// RPC details. The server flag is implied by credentials.
	if c.RPCCookie != "" || c.RPCUser != "" {
		buf.WriteString("server=1\n")
	}
	if c.RPCCookie != "" {
		fmt.Fprintf(&buf, "rpccookiefile=%s\n", c.RPCCookie)
	}
	if c.RPCPort != 0 {
		fmt.Fprintf(&buf, "rpcport=%d\n", c.RPCPort)
	}
	if c.RPCUser != "" {
		fmt.Fprintf(&buf, "rpcuser=%s\n", c.RPCUser)
	}
	if c.RPCPass != "" {
		fmt.Fprintf(&buf, "rpcpassword=%s\n", c.RPCPass)
	}

	fmt.Fprintf(&buf, "validatepegin=%d\n", b2i(c.ValidatePegin))
	if c.ValidatePegin {
		if c.MainchainRPCHost != "" {
			fmt.Fprintf(&buf, "mainchainrpchost=%s\n", c.MainchainRPCHost)
		}
		if c.MainchainRPCPort != 0 {
			fmt.Fprintf(&buf, "mainchainrpcport=%d\n", c.MainchainRPCPort)
		}
		if c.MainchainRPCUser != "" {
			fmt.Fprintf(&buf, "mainchainrpcuser=%s\n", c.MainchainRPCUser)
		}
		if c.MainchainRPCPass != "" {
			fmt.Fprintf(&buf, "mainchainrpcpassword=%s\n", c.MainchainRPCPass)
		}
	}

	if c.AddressType != "" {
		fmt.Fprintf(&buf, "addresstype=%s\n", c.AddressType)
	}
	if c.BlockMinTxFee != 0 {
		fmt.Fprintf(&buf, "blockmintxfee=%s\n", fmtFee(c.BlockMinTxFee))
	}
	if c.MinRelayTxFee != 0 {
		fmt.Fprintf(&buf, "minrelaytxfee=%s\n", fmtFee(c.MinRelayTxFee))
	}
	return buf.WriteTo(w)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// fmtFee renders fee rates in plain decimal notation. elementsd rejects
// exponent forms like 1e-05.
func fmtFee(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
