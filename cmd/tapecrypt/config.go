package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

type Config struct {
	Device         string `json:"device" yaml:"device"`
	AlgorithmIndex uint8  `json:"algorithm-index" yaml:"algorithm-index"`
	KeyFile        string `json:"key-file" yaml:"key-file"`
	IdentityFile   string `json:"identity-file" yaml:"identity-file"`
	Recipient      string `json:"recipient" yaml:"recipient"`
	CKOD           bool   `json:"ckod" yaml:"ckod"`
	RDMC           string `json:"rdmc" yaml:"rdmc"`
	CEEM           uint8  `json:"ceem" yaml:"ceem"`
	Journal        string `json:"journal" yaml:"journal"`
}

func defaultConfig() Config {
	return Config{
		Device:         "/dev/nst0",
		AlgorithmIndex: 1,
		RDMC:           "default",
		CEEM:           page.DEFAULT_CEEM,
	}
}

func loadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	config := defaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &config)
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if _, err = parseRDMC(config.RDMC); err != nil {
		return Config{}, err
	}
	return config, nil
}

func parseRDMC(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return page.RDMC_DEFAULT, nil
	case "unprotect":
		return page.RDMC_UNPROTECT, nil
	case "protect":
		return page.RDMC_PROTECT, nil
	default:
		return 0, fmt.Errorf("unknown raw decryption mode control %q (use default, protect or unprotect)", s)
	}
}
