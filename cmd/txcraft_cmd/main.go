package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/trumpow/txcraft/cmd"
	"github.com/trumpow/txcraft/common"
	"github.com/trumpow/txcraft/engine"
	"github.com/trumpow/txcraft/logconfig"
	"github.com/trumpow/txcraft/reporter"
)

const (
	ENV_CONFIG_FILE_PATH = "TXCRAFT_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("txcraft configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("txcraft configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	if !initializeViper(_config_file) {
		return
	}

	logconfig.ConfigByName(viper.GetString("LOG_LEVEL"))

	// Prepare the wallet user configuration
	wuc, err := PrepareWalletUserConfig()
	if err != nil {
		fmt.Printf("Error preparing wallet configuration: %s\n", err)
		return
	}

	wu, err := cmd.NewWalletUser(wuc)
	if err != nil {
		fmt.Printf("Error creating wallet user: %s\n", err)
		return
	}

	// Optional: publish locks and plan history over http.
	if viper.GetBool("REPORTER_ENABLE") {
		r := reporter.NewHttpReporter(
			viper.GetString("REPORTER_IP"),
			viper.GetString("REPORTER_PORT"),
			wu.MyEngine.Locks(),
			wu.MyJournal,
		)
		go r.Run()
	}

	fmt.Println(strings.Repeat("=", 30))
	fmt.Println("Welcome to the txcraft command line tool.")
	fmt.Printf("Wallet addresses: %s\n", strings.Join(wuc.Addresses, ", "))

	// *** user interactive program ***

	// Create a cancelable context and signal handler for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handler to catch Ctrl-C.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		_captured := <-sig
		fmt.Printf("\nReceived interrupt signal, shutting down... %v\n", _captured)
		cancel()
		wu.Close()
		os.Exit(0)
	}()

	// gather user inputs
	scanner := bufio.NewScanner(os.Stdin)
	for {
		// Check if context is done (just in case)
		select {
		case <-ctx.Done():
			wu.Close() // release wallet user resources.
			return
		default:
		}

		// Print options
		fmt.Println("What to do:")
		fmt.Println("1) View balance")
		fmt.Println("2) View spendable UTXOs")
		fmt.Println("3) Send a payment")
		fmt.Println("4) Consolidate small UTXOs")
		fmt.Println("5) View held locks")
		fmt.Print("Type option and press Enter: ")

		// Wait for input.
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		// Process user input.
		switch input {
		case "1":
			confirmed, shallow, err := wu.GetBalance()
			if err != nil {
				fmt.Printf("Error getting balance: %s\n", err)
			} else {
				fmt.Printf("Confirmed balance: %s TRMP\n", common.FormatAmount(confirmed))
				fmt.Printf("Shallow balance:   %s TRMP\n", common.FormatAmount(shallow))
			}
			if height, err := wu.RpcClient.GetBlockCount(); err == nil {
				fmt.Printf("Chain height: %d\n", height)
			}
		case "2":
			_utxos, err := wu.GetUtxos()
			if err != nil {
				fmt.Printf("Error getting UTXOs: %s\n", err)
			} else {
				for idx, _utxo := range _utxos {
					fmt.Printf("[%d]: TxId %s, vout %d, %s TRMP, %d confirmations\n",
						idx, _utxo.TxID, _utxo.Vout, common.FormatAmount(_utxo.Amount), _utxo.Confirmations)
				}
			}
		case "3":
			fmt.Println("Sending a payment...")
			sendPayment(wu)
		case "4":
			fmt.Println("Consolidating small UTXOs...")
			sendConsolidation(wu)
		case "5":
			for _, info := range wu.HeldLocks() {
				fmt.Printf("%s locked at %s, expires %s\n",
					info.Outpoint, info.LockedAt.Format("15:04:05"), info.ExpiresAt.Format("15:04:05"))
			}
		default:
			fmt.Println("Unknown option, try again.")
		}
		fmt.Println()
	}
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

func PrepareWalletUserConfig() (*cmd.WalletUserConfig, error) {
	engineCfg, err := engine.FromViper()
	if err != nil {
		return nil, err
	}

	addresses := viper.GetStringSlice("WALLET_ADDRESSES")
	if len(addresses) == 0 {
		// allow a comma separated string as well
		raw := viper.GetString("WALLET_ADDRESSES")
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addresses = append(addresses, a)
			}
		}
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("WALLET_ADDRESSES must name at least one address")
	}

	return &cmd.WalletUserConfig{
		RpcServer:     viper.GetString("RPC_SERVER"),
		RpcPort:       viper.GetString("RPC_PORT"),
		RpcUsername:   viper.GetString("RPC_USERNAME"),
		RpcPwd:        viper.GetString("RPC_PWD"),
		EngineConfig:  engineCfg,
		Addresses:     addresses,
		JournalDBPath: viper.GetString("JOURNAL_DB_PATH"),
	}, nil
}

func sendPayment(wu *cmd.WalletUser) (string, error) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Enter receiver address: ")
	scanner.Scan()
	receiverAddress := strings.TrimSpace(scanner.Text())

	fmt.Print("Enter amount to send (in TRMP, e.g. 1.5): ")
	scanner.Scan()
	amountToSend, err := common.ParseAmount(strings.TrimSpace(scanner.Text()))
	if err != nil {
		fmt.Printf("Invalid amount: %s\n", err)
		return "", err
	}

	fmt.Print("Enter maximum acceptable fee (in TRMP, empty for no cap): ")
	scanner.Scan()
	var maxFee int64
	if raw := strings.TrimSpace(scanner.Text()); raw != "" {
		maxFee, err = common.ParseAmount(raw)
		if err != nil {
			fmt.Printf("Invalid fee cap: %s\n", err)
			return "", err
		}
	}

	fmt.Printf("Sending %s TRMP to %s\n", common.FormatAmount(amountToSend), receiverAddress)

	txid, err := wu.Send(receiverAddress, amountToSend, maxFee)
	if err != nil {
		fmt.Printf("Error sending payment: %s\n", err)
		return "", err
	}
	fmt.Printf("Broadcast, txid: %s\n", txid)
	return txid, nil
}

func sendConsolidation(wu *cmd.WalletUser) (string, error) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Enter destination address for the merged output: ")
	scanner.Scan()
	destAddress := strings.TrimSpace(scanner.Text())

	txid, err := wu.Consolidate(destAddress)
	if err != nil {
		fmt.Printf("Error consolidating: %s\n", err)
		return "", err
	}
	fmt.Printf("Broadcast, txid: %s\n", txid)
	return txid, nil
}
