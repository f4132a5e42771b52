package lp5562

// Channel is one of the four LED outputs.
type Channel uint8

const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
	ChannelWhite
	numChannels
)

func (ch Channel) String() string {
	switch ch {
	case ChannelRed:
		return "red"
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	case ChannelWhite:
		return "white"
	}
	return "invalid"
}

// pwmReg returns the direct PWM register of the channel.
func (ch Channel) pwmReg() Register {
	switch ch {
	case ChannelRed:
		return RegRedPWM
	case ChannelGreen:
		return RegGreenPWM
	case ChannelBlue:
		return RegBluePWM
	case ChannelWhite:
		return RegWhitePWM
	}
	panic(badChannel)
}

// currentReg returns the current control register of the channel.
func (ch Channel) currentReg() Register {
	switch ch {
	case ChannelRed:
		return RegRedCurr
	case ChannelGreen:
		return RegGreenCurr
	case ChannelBlue:
		return RegBlueCurr
	case ChannelWhite:
		return RegWhiteCurr
	}
	panic(badChannel)
}

// mapShift is the position of the channel's field in the LED map register:
// white in bits 7:6, red 5:4, green 3:2 and blue 1:0.
func (ch Channel) mapShift() uint8 {
	switch ch {
	case ChannelRed:
		return 4
	case ChannelGreen:
		return 2
	case ChannelBlue:
		return 0
	case ChannelWhite:
		return 6
	}
	panic(badChannel)
}

// Route selects what drives an LED channel.
type Route uint8

const (
	// RouteDirect drives the channel from its direct PWM register.
	RouteDirect Route = iota
	RouteEngine1
	RouteEngine2
	RouteEngine3
)

// EngineRoute returns the route that connects a channel to the engine with
// the given index (1-3).
func EngineRoute(index uint8) Route {
	mustEngineIndex(index)
	return Route(index)
}

// Engine returns the index of the engine driving the route. ok is false for
// RouteDirect.
func (r Route) Engine() (index uint8, ok bool) {
	r &= 0b11
	return uint8(r), r != RouteDirect
}

func (r Route) String() string {
	switch r {
	case RouteDirect:
		return "direct"
	case RouteEngine1:
		return "engine1"
	case RouteEngine2:
		return "engine2"
	case RouteEngine3:
		return "engine3"
	}
	return "invalid"
}

// LEDMap is the routing of every channel, indexed by Channel.
// The zero value routes all channels to their direct PWM registers.
type LEDMap [numChannels]Route

// Encode packs the routing into the LED map register format.
func (m LEDMap) Encode() uint8 {
	var v uint8
	for ch := ChannelRed; ch < numChannels; ch++ {
		v |= uint8(m[ch]&0b11) << ch.mapShift()
	}
	return v
}

// DecodeLEDMap unpacks the LED map register.
func DecodeLEDMap(v uint8) LEDMap {
	var m LEDMap
	for ch := ChannelRed; ch < numChannels; ch++ {
		m[ch] = Route((v >> ch.mapShift()) & 0b11)
	}
	return m
}

// Engines returns the engines that drive at least one channel.
func (m LEDMap) Engines() EngineMask {
	var mask EngineMask
	for _, r := range m {
		if index, ok := r.Engine(); ok {
			mask |= EngineBit(index)
		}
	}
	return mask
}
