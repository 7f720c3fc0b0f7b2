package main

import (
	"fmt"
	"sync"

	"github.com/alcxpr/acheron"
	"github.com/dustin/go-humanize"
)

type Player struct {
	ID   uint64
	HP   uint32
	MP   uint32
	Name [32]byte
}

func fillPlayer(p *Player, id uint64, name string) {
	*p = Player{ID: id, HP: uint32(id), MP: uint32(id)}
	copy(p.Name[:], name)
}

func main() {
	a := acheron.Shared()

	var wg sync.WaitGroup
	wg.Add(2)
	spawn := func(prefix string, base uint64) {
		defer wg.Done()
		for i := uint64(0); i < 100; i++ {
			p, err := acheron.New[Player](a)
			if err != nil {
				fmt.Println("allocate:", err)
				return
			}
			fillPlayer(p, base+i, fmt.Sprintf("%s%d", prefix, i))
			fmt.Println(p.ID, p.HP, string(p.Name[:]))
			_ = acheron.Delete(a, p)
		}
	}
	go spawn("player", 0)
	go spawn("master", 1000)
	wg.Wait()

	local := acheron.NewLocal()
	defer local.Close()

	buf, err := acheron.Make[byte](local, 5<<20)
	if err != nil {
		fmt.Println("allocate:", err)
		return
	}
	for i := range buf {
		buf[i] = byte(i)
	}
	fmt.Println("direct mapping:", humanize.IBytes(uint64(len(buf))))
	_ = acheron.Free(local, buf)

	st := a.Stats()
	fmt.Printf("shared: %d arenas, %s reserved, %d direct mappings\n",
		st.Arenas, humanize.IBytes(uint64(st.ReservedBytes)), st.DirectCount)
}
