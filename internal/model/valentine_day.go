package model

// ValentineDay 情人节周中的一天（静态目录）
// swagger:model ValentineDay
type ValentineDay struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Quote  string `json:"quote"`
	Route  string `json:"route"`
}

var valentineWeek = []ValentineDay{
	{Number: 1, Name: "Rose Day", Date: "February 7", Quote: "Every rose whispers the words I keep for you.", Route: "/day1"},
	{Number: 2, Name: "Propose Day", Date: "February 8", Quote: "Ask me anything, the answer was always you.", Route: "/day2"},
	{Number: 3, Name: "Chocolate Day", Date: "February 9", Quote: "Life is sweeter with you in it.", Route: "/day3"},
	{Number: 4, Name: "Teddy Day", Date: "February 10", Quote: "Something soft to hold until I can hold you.", Route: "/day4"},
	{Number: 5, Name: "Promise Day", Date: "February 11", Quote: "A promise is a small word for a lifetime.", Route: "/day5"},
	{Number: 6, Name: "Hug Day", Date: "February 12", Quote: "Draw a little love and it finds its way back.", Route: "/day6"},
	{Number: 7, Name: "Kiss Day", Date: "February 13", Quote: "Some things are better said without words.", Route: "/day7"},
	{Number: 8, Name: "Valentine's Day", Date: "February 14", Quote: "Every day was leading here, to you.", Route: "/day8"},
}

// ValentineWeek 返回目录的副本
func ValentineWeek() []ValentineDay {
	days := make([]ValentineDay, len(valentineWeek))
	copy(days, valentineWeek)
	return days
}
