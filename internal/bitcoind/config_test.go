package bitcoind

import (
	"strings"
	"testing"
)

func render(t *testing.T, c Config) string {
	t.Helper()
	var sb strings.Builder
	if _, err := c.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return sb.String()
}

func TestWriteToRegtestDefaults(t *testing.T) {
	got := render(t, Config{
		Datadir: "/data/btc",
		Network: NetworkRegtest,
	})
	want := "datadir=/data/btc\n" +
		"regtest=1\n" +
		"[regtest]\n" +
		"debug=0\n" +
		"printtoconsole=0\n" +
		"daemon=0\n" +
		"listen=0\n" +
		"txindex=0\n"
	if got != want {
		t.Fatalf("rendered config:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteToSectionHeaderVersionGate(t *testing.T) {
	// 0.17 and older daemons do not understand section headers.
	old := render(t, Config{Datadir: "/d", Network: NetworkTestnet, Version: 17_00_00})
	if strings.Contains(old, "[testnet]") {
		t.Fatalf("version 17_00_00 rendered a section header:\n%s", old)
	}
	if !strings.Contains(old, "testnet=1\n") {
		t.Fatalf("missing testnet flag:\n%s", old)
	}

	recent := render(t, Config{Datadir: "/d", Network: NetworkTestnet, Version: 18_01_00})
	if !strings.Contains(recent, "testnet=1\n[testnet]\n") {
		t.Fatalf("version 18_01_00 missing section header:\n%s", recent)
	}
}

func TestWriteToMainnetHasNoNetworkLines(t *testing.T) {
	got := render(t, Config{Datadir: "/d", Network: NetworkMainnet})
	if strings.Contains(got, "testnet") || strings.Contains(got, "regtest") {
		t.Fatalf("mainnet config mentions another network:\n%s", got)
	}
}

func TestWriteToUnknownNetwork(t *testing.T) {
	var sb strings.Builder
	if _, err := (Config{Datadir: "/d", Network: "signet"}).WriteTo(&sb); err == nil {
		t.Fatal("unknown network accepted")
	}
}

func TestWriteToRPCImpliesServer(t *testing.T) {
	got := render(t, Config{
		Datadir: "/d",
		RPCPort: 18443,
		RPCUser: "user",
		RPCPass: "pass",
	})
	for _, want := range []string{"server=1\n", "rpcport=18443\n", "rpcuser=user\n", "rpcpassword=pass\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	cookie := render(t, Config{Datadir: "/d", RPCCookie: "/d/.cookie"})
	if !strings.Contains(cookie, "server=1\n") || !strings.Contains(cookie, "rpccookiefile=/d/.cookie\n") {
		t.Fatalf("cookie config:\n%s", cookie)
	}

	none := render(t, Config{Datadir: "/d"})
	if strings.Contains(none, "server=1") {
		t.Fatalf("server flag without credentials:\n%s", none)
	}
}

func TestWriteToFeesPlainDecimal(t *testing.T) {
	got := render(t, Config{
		Datadir:       "/d",
		BlockMinTxFee: 0.00001,
		MinRelayTxFee: 0.00001,
	})
	if !strings.Contains(got, "blockmintxfee=0.00001\n") {
		t.Fatalf("fee not in plain decimal:\n%s", got)
	}
	if strings.Contains(got, "e-") {
		t.Fatalf("fee rendered in exponent notation:\n%s", got)
	}
}

func TestWriteToConnectAndPort(t *testing.T) {
	got := render(t, Config{
		Datadir: "/d",
		Port:    18444,
		Connect: []string{"127.0.0.1:1234", "127.0.0.1:5678"},
	})
	if !strings.Contains(got, "port=18444\n") {
		t.Fatalf("missing port:\n%s", got)
	}
	if !strings.Contains(got, "connect=127.0.0.1:1234\nconnect=127.0.0.1:5678\n") {
		t.Fatalf("missing connect lines:\n%s", got)
	}
}
