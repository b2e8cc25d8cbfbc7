package app

// RoomCapacity is the number of seats in a room, one per side.
const RoomCapacity = 2
