// Package combat resolves attack commands: inventory-based attack and
// defense aggregation, damage application, and the single retaliation round.
package combat

import (
	"fmt"
	"strings"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// BareFistAttack is the attack total of a combatant carrying no weapons.
const BareFistAttack = 1

// Round is the outcome of one attack within a battle.
type Round struct {
	// Attacker and Defender are the combatants' display names.
	Attacker string
	Defender string
	// Weapons are the attacker's contributing item names; empty means fists.
	Weapons []string
	// Defenses are the defender's contributing item names; empty means fists.
	Defenses []string
	// Damage is the hit points removed, always >= 1.
	Damage int
	// Killed reports whether the defender's hit points reached 0.
	Killed bool
	// Retaliation reports whether this round was the automatic counter.
	Retaliation bool
}

// Narration renders the round as battle text, one line per sentence.
func (r Round) Narration() string {
	verb := "attacked"
	if r.Retaliation {
		verb = "retaliated"
	}
	died := ""
	if r.Killed {
		died = " and died"
	}
	return fmt.Sprintf("%s %s with %s.\n%s defended with %s.\n%s took %d damage%s.",
		r.Attacker, verb, orFists(r.Weapons),
		r.Defender, orFists(r.Defenses),
		r.Defender, r.Damage, died)
}

func orFists(names []string) string {
	if len(names) == 0 {
		return "their fists"
	}
	return strings.Join(names, ", ")
}

// Narrate joins round narrations into the full battle text.
func Narrate(rounds []Round) string {
	lines := make([]string, len(rounds))
	for i, r := range rounds {
		lines[i] = r.Narration()
	}
	return strings.Join(lines, "\n")
}

// AttackTotal sums the attack values of the carried items that define one
// and collects their names. A combatant with no qualifying items attacks
// bare-fisted with BareFistAttack.
func AttackTotal(items []*world.Item) (int, []string) {
	total := 0
	var names []string
	for _, it := range items {
		if it.Attack == nil {
			continue
		}
		total += *it.Attack
		names = append(names, it.Name())
	}
	if len(names) == 0 {
		return BareFistAttack, nil
	}
	return total, names
}

// DefenseTotal sums the defense values of the carried items that define one
// and collects their names. No qualifying items means 0 defense.
func DefenseTotal(items []*world.Item) (int, []string) {
	total := 0
	var names []string
	for _, it := range items {
		if it.Defense == nil {
			continue
		}
		total += *it.Defense
		names = append(names, it.Name())
	}
	return total, names
}

// Damage computes the hit points removed by an attack. Damage never drops
// below 1, however strong the defense.
func Damage(attack, defense int) int {
	d := attack - defense
	if d < 1 {
		return 1
	}
	return d
}

// Resolve runs a full battle: the attacker strikes the defender, and if the
// defender survives it retaliates exactly once. Hit points are applied to
// the characters in place, clamped at 0. Rounds are resolved in a bounded
// loop, never recursively, so a battle is at most two rounds.
//
// Precondition: attacker and defender are distinct and both alive.
// Postcondition: Returns 1 or 2 rounds; HP fields reflect all damage dealt.
func Resolve(attacker, defender *world.Character, attackerItems, defenderItems []*world.Item) []Round {
	rounds := make([]Round, 0, 2)

	type side struct {
		who   *world.Character
		items []*world.Item
	}
	a, d := side{attacker, attackerItems}, side{defender, defenderItems}

	for i := 0; i < 2; i++ {
		retaliation := i == 1
		attack, weapons := AttackTotal(a.items)
		defense, defenses := DefenseTotal(d.items)
		dmg := Damage(attack, defense)

		d.who.HP -= dmg
		if d.who.HP < 0 {
			d.who.HP = 0
		}

		rounds = append(rounds, Round{
			Attacker:    a.who.Name(),
			Defender:    d.who.Name(),
			Weapons:     weapons,
			Defenses:    defenses,
			Damage:      dmg,
			Killed:      d.who.Dead(),
			Retaliation: retaliation,
		})

		if d.who.Dead() {
			break
		}
		a, d = d, a
	}
	return rounds
}
