package config

const Version = "1.0.0"
