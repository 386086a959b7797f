// Package config defines padboard's command line, which kong also fills
// from json, yaml and toml configuration files.
package config

import "github.com/Alia5/padboard/internal/cmd"

type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"PADBOARD_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" type:"path" env:"PADBOARD_LOG_FILE"`
	RawFile string `help:"Dump raw device and output records to this file" type:"path" env:"PADBOARD_LOG_RAW_FILE"`
}

type CLI struct {
	ConfigFile string `name:"config" help:"Configuration file (json, yaml or toml)" type:"path" env:"PADBOARD_CONFIG"`
	Log        Log    `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" help:"Drive the on-screen keyboard from a gamepad"`
	Monitor   cmd.Monitor       `cmd:"" help:"Print the event stream of an input device"`
	Config    cmd.ConfigCommand `cmd:"" help:"Manage configuration files"`
	Install   cmd.Install       `cmd:"" help:"Install padboard as a systemd service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the padboard systemd service"`
}
