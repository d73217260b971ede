package config

func (c mainConfig) GetTokenFile() string {
	return c.s.Storage.TokenFile
}

// GetRouteTableFile is an optional YAML route table; empty means the built-in table
func (c mainConfig) GetRouteTableFile() string {
	return c.s.Storage.RouteTable
}
