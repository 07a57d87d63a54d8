package cmd

import (
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	logger "github.com/sirupsen/logrus"

	trmprpc "github.com/trumpow/txcraft/trmpman/rpc"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// Shared Helper function. Create a trumpow rpc client.
func SetupRpc(server string, port string, username string, password string, params *chaincfg.Params) (*trmprpc.Client, error) {
	_config := trmprpc.ClientConfig{
		ServerAddr:  server,
		Port:        port,
		Username:    username,
		Pwd:         password,
		ChainParams: params,
	}
	r, err := trmprpc.NewClient(&_config)
	if err != nil {
		logger.Fatalf("failed to create trumpow rpc client: %v", err)
		return nil, err
	}
	return r, nil
}
