package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	pcnet "pixelcraft/internal/net"
	"pixelcraft/internal/state"
	"pixelcraft/internal/ui"

	"github.com/hashicorp/mdns"
	"github.com/tdewolff/argp"
)

// Desktop opens the editor in a native window.
type Desktop struct {
	Width     int    `default:"800" desc:"Canvas width in pixels"`
	Height    int    `default:"600" desc:"Canvas height in pixels"`
	Downloads string `short:"d" default:"." desc:"Directory saved images are written to"`
}

// Serve runs the browser front end.
type Serve struct {
	Width     int    `default:"800" desc:"Canvas width in pixels"`
	Height    int    `default:"600" desc:"Canvas height in pixels"`
	Addr      string `short:"a" default:":8888" desc:"Listen address"`
	Advertise bool   `desc:"Announce the editor on the local network via mDNS"`
}

// Discover lists editors announced on the local network.
type Discover struct {
	Wait int `short:"w" default:"2" desc:"Seconds to listen for announcements"`
}

func main() {
	root := argp.NewCmd(&Desktop{}, "PixelCraft raster drawing tool")
	root.AddCmd(&Serve{}, "serve", "Serve the editor to web browsers")
	root.AddCmd(&Discover{}, "discover", "Find editors served on the local network")
	root.Parse()
	root.PrintHelp()
}

func (cmd *Desktop) Run() error {
	log.Println("Starting desktop editor")
	return ui.RunApp(ui.Config{
		Canvas:    state.Config{Width: cmd.Width, Height: cmd.Height},
		Downloads: cmd.Downloads,
	})
}

func (cmd *Serve) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var zone *mdns.Server
	defer func() {
		if zone != nil {
			zone.Shutdown()
		}
	}()

	srv := pcnet.NewServer(state.Config{Width: cmd.Width, Height: cmd.Height})
	return srv.ListenAndServe(ctx, cmd.Addr, func(addr net.Addr) {
		port := addr.(*net.TCPAddr).Port
		log.Printf("Share link: http://%s:%d/", pcnet.GetOutgoingIP(), port)
		if !cmd.Advertise {
			return
		}
		var err error
		if zone, err = pcnet.Advertise(port); err != nil {
			log.Printf("[MDNS] %v", err)
		}
	})
}

func (cmd *Discover) Run() error {
	found := 0
	err := pcnet.Browse(time.Duration(cmd.Wait)*time.Second, func(addr string) {
		found++
		fmt.Printf("http://%s/\n", addr)
	})
	if err != nil {
		return err
	}
	if found == 0 {
		fmt.Println("no editors found")
	}
	return nil
}
