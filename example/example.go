package main

import (
	"context"
	"flag"
	"time"

	"redicli/client"
	"redicli/config"
	"redicli/util/log"
)

var configPath = flag.String("config", "", "path to yaml config file")

func main() {
	flag.Parse()
	if *configPath != "" {
		if err := config.LoadConfigs(*configPath); err != nil {
			log.Error(err)
			return
		}
	}
	if config.Properties.DebugMode {
		log.SetLevel(log.LevelDebug)
	}

	c := client.FromProperties(config.Properties)
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		log.Error(err)
		return
	}

	size, err := c.DBSize(ctx)
	if err != nil {
		log.Error(err)
		return
	}
	log.Info("keys in database: %d", size)

	serverTime, err := c.Time(ctx)
	if err != nil {
		log.Error(err)
		return
	}
	log.Info("server time: %s, drift: %s", serverTime, time.Since(serverTime))

	entries, err := c.ConfigGet(ctx, "maxmemory*")
	if err != nil {
		log.Error(err)
		return
	}
	for _, entry := range entries {
		log.Info("config %s = %q", entry.Key, entry.Value)
	}

	clients, err := c.ClientList(ctx)
	if err != nil {
		log.Error(err)
		return
	}
	for _, attributes := range clients {
		log.Info("client %s name=%q", attributes["addr"], attributes["name"])
	}

	// batch independent commands on one connection
	pipe := c.Pipeline()
	_ = pipe.Queue("SET", "example:counter", 0)
	_ = pipe.Queue("INCR", "example:counter")
	_ = pipe.Queue("GET", "example:counter")
	replies, err := pipe.Exec(ctx)
	if err != nil {
		log.Error(err)
		return
	}
	log.Info("pipelined %d commands, last reply: %s", len(replies), replies[len(replies)-1].Text())
}
